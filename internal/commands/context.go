package commands

import (
	"context"
)

// Context carries one inbound chat command through the middleware chain
type Context struct {
	// Context for cancellation
	Context context.Context

	// UserID is the platform id of the sender
	UserID string

	// Command is the word after the bang, e.g. "roll"
	Command string

	// Args is everything after the command and its separating whitespace
	Args string

	// RequestID correlates log lines of one command
	RequestID string
}

// NewContext creates a command context
func NewContext(ctx context.Context, userID, command, args string) *Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Context{
		Context: ctx,
		UserID:  userID,
		Command: command,
		Args:    args,
	}
}
