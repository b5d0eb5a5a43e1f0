package domain

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("redirect not found")
	ErrPersistence          = errors.New("redirect store failure")
	ErrAnalyticsPersistence = errors.New("analytics write failed")
)
