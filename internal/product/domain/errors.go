package domain

import "errors"

var (
	ErrNotFound      = errors.New("product_not_found")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidKind   = errors.New("invalid_kind")
	ErrInvalidTitle  = errors.New("invalid_title")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrCodeExists    = errors.New("code_exists")
)
