package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	KindWorkshop    = "workshop"
	KindSchoolClass = "school_class"
	KindPrintItem   = "print_item"
)

// Product is anything the studio sells: a workshop session, a school class
// enrollment plan, or a print job item priced per quantity.
type Product struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Code       string       `gorm:"not null;uniqueIndex" json:"code"`
	Kind       string       `gorm:"not null" json:"kind"`
	Title      string       `gorm:"not null" json:"title"`
	UnitAmount int64        `gorm:"not null" json:"unit_amount"`
	Active     bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

func ValidKind(kind string) bool {
	switch kind {
	case KindWorkshop, KindSchoolClass, KindPrintItem:
		return true
	default:
		return false
	}
}
