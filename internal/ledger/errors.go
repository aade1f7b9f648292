package ledger

import "errors"

// Mutations that fail with one of these leave balance and portfolio untouched.
var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrPortfolioFull        = errors.New("portfolio full")
	ErrPositionNotFound     = errors.New("position not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidQuote         = errors.New("invalid quote")
)

// ErrReloadFailed means the store accepted the write but could not be read
// back. The change is committed; memory holds the merged update.
var ErrReloadFailed = errors.New("write committed but reload failed")
