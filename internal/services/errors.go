package services

import "errors"

var (
	ErrNoEmergencyContacts = errors.New("no emergency contacts configured")
	ErrInvalidContact      = errors.New("invalid contact")
	ErrInvalidSettings     = errors.New("invalid settings")
	ErrNoChannel           = errors.New("no notification channel requested")
	ErrLockHeld            = errors.New("lock already held")
	ErrLockLost            = errors.New("lock no longer held")
	ErrInvalidImage        = errors.New("invalid image")
)
