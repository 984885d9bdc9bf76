package money

import "errors"

// Common money package errors
var (
	// ErrInvalidAmount is returned for malformed, negative or over-precise amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCurrency is returned when a currency code is not three uppercase letters.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrCurrencyMismatch is returned when performing operations on money with
	// different currencies
	ErrCurrencyMismatch = errors.New("mismatched currencies")
)
