package commands

import (
	"errors"

	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
)

// DefaultUserMessage is sent when a command fails for a reason the player cannot fix
const DefaultUserMessage = "Something went wrong while processing your command. Please try again later."

// HandlerError represents an error that occurred during handler execution
type HandlerError struct {
	// The underlying error
	Err error

	// User-friendly message to display
	UserMessage string

	// Whether this error should be shown to the user
	ShowToUser bool
}

// Error implements the error interface
func (e *HandlerError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error whose message goes straight back to the player
func NewUserError(message string) *HandlerError {
	return &HandlerError{
		UserMessage: message,
		ShowToUser:  true,
	}
}

// NewInternalError creates an error that is logged but replaced by DefaultUserMessage
func NewInternalError(err error) *HandlerError {
	return &HandlerError{
		Err:         err,
		UserMessage: DefaultUserMessage,
	}
}

// userMessage picks the reply text for an error
func userMessage(err error) string {
	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) && handlerErr.ShowToUser {
		return handlerErr.UserMessage
	}

	if msg, ok := dnderr.UserMessage(err); ok {
		return msg
	}

	return DefaultUserMessage
}
