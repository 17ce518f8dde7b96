package domain

import "errors"

var (
	ErrCorruptDocument     = errors.New("persisted document is malformed")
	ErrUnknownDriver       = errors.New("unknown storage driver")
	ErrUnknownDestination  = errors.New("unsupported destination")
	ErrDeliveryUnavailable = errors.New("delivery channel is not configured")
	ErrEmptyDestination    = errors.New("destination id is empty")
)
