package domain

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid_checkout_request")
	ErrProductNotBookable = errors.New("product_not_bookable")
	ErrSessionFailed      = errors.New("checkout_session_failed")
)
