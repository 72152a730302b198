package models

import "errors"

var (
	ErrMarketNotFound  = errors.New("market not found")
	ErrInvalidWinner   = errors.New("winner option does not belong to market")
	ErrAlreadyResolved = errors.New("market already resolved")
	ErrMarketResolved  = errors.New("market is terminal and cannot be edited")
	ErrEmptyBatch      = errors.New("import batch is empty")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUpstream        = errors.New("upstream unavailable")
)
