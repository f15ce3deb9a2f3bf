package client

import "errors"

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUnexpectedStatus      = errors.New("unexpected response status")
	ErrDecode                = errors.New("malformed response body")
	ErrLoginRejected         = errors.New("invalid email or password")
	ErrRegistrationRejected  = errors.New("registration rejected")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)
