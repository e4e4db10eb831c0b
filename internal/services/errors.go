package services

import "errors"

// Sentinel errors shared by the services. Handlers map these onto HTTP
// status codes; everything else is treated as an internal failure.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPastDate    = errors.New("time is in the past")
	ErrExpired     = errors.New("token expired")
	ErrAlreadyUsed = errors.New("token already used")
	ErrInvalid     = errors.New("invalid input")
)
