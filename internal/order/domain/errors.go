package domain

import "errors"

var (
	ErrNotFound            = errors.New("order_not_found")
	ErrInvalidKind         = errors.New("invalid_order_kind")
	ErrInvalidStatus       = errors.New("invalid_order_status")
	ErrInvalidParticipants = errors.New("invalid_participants")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrOrderFrozen         = errors.New("order_frozen")
)
