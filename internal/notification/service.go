package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	customerdomain "github.com/makestudio/printforge/internal/customer/domain"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	"github.com/makestudio/printforge/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templateFS, "templates/confirmation.html"))

type confirmationData struct {
	CustomerName   string
	ProductTitle   string
	Reference      string
	Participants   int
	DiscountAmount int64
	NetAmount      int64
	IsEnrollment   bool
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Provider email.Provider
}

type Service struct {
	log      *zap.Logger
	provider email.Provider
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("notification.service"),
		provider: p.Provider,
	}
}

// SendConfirmation emails the paid-order confirmation. The caller treats a
// failure as an operational note on the order, never as a reason to roll the
// payment back.
func (s *Service) SendConfirmation(
	ctx context.Context,
	order *orderdomain.Order,
	customer *customerdomain.Customer,
	product *productdomain.Product,
) error {
	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, confirmationData{
		CustomerName:   customer.Name,
		ProductTitle:   product.Title,
		Reference:      order.Reference,
		Participants:   order.Participants,
		DiscountAmount: order.DiscountAmount,
		NetAmount:      order.NetAmount,
		IsEnrollment:   order.Kind == orderdomain.KindEnrollment,
	})
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	subject := fmt.Sprintf("ご予約確認 %s", order.Reference)
	if order.Kind == orderdomain.KindEnrollment {
		subject = fmt.Sprintf("ご入会確認 %s", order.Reference)
	}

	if err := s.provider.Send(ctx, []string{customer.Email}, subject, body.String()); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}

	s.log.Info("confirmation sent",
		zap.Int64("order_id", int64(order.ID)),
		zap.String("reference", order.Reference),
	)
	return nil
}
