package errors

import "errors"

var (
	ErrRuleNotFound = errors.New("availability rule not found")

	ErrDuplicateBooking = errors.New("booking already holds a reserved range")

	ErrInvalidID = errors.New("invalid availability rule ID format")
)
