package domain

import "errors"

var (
	ErrInviteExpired       = errors.New("invite has expired")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrEmptyDocument       = errors.New("document contains no text")
	ErrBotDetected         = errors.New("the site refused the request as a bot")
	ErrInvalidVerdict      = errors.New("invalid verdict")
	ErrInvalidJobDraft     = errors.New("invalid job draft")
)
