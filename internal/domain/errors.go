package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrMissingUser     = errors.New("owner user id is required")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidAmount       = errors.New("amount must not be negative")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrSameAccount         = errors.New("cannot transfer to same account")
	ErrMissingDestination  = errors.New("transfer requires a destination account")
	ErrMissingAccount      = errors.New("transaction requires a source account")
	ErrMissingDate         = errors.New("transaction requires a date")

	// Recurrence errors
	ErrInvalidRecurrence = errors.New("invalid recurrence configuration")

	// Query errors
	ErrInvalidWindow = errors.New("window end must be after window start")
)
