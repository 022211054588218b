package chat

import "errors"

// Referential integrity failures. These surface as client errors; everything
// else is treated as an internal failure.
var (
	ErrUnknownAuthor  = errors.New("unknown author")
	ErrUnknownMessage = errors.New("unknown message")
	ErrUnknownUser    = errors.New("unknown user")
	ErrUsernameTaken  = errors.New("username already taken")
)
