package domain

import "errors"

var (
	ErrNotFound     = errors.New("customer_not_found")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidName  = errors.New("invalid_name")
)
