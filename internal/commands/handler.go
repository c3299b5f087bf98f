package commands

// Handler processes one routed command
type Handler interface {
	Handle(ctx *Context) (*Result, error)
}

// HandlerFunc allows functions to implement the Handler interface
type HandlerFunc func(ctx *Context) (*Result, error)

// Handle calls the function
func (f HandlerFunc) Handle(ctx *Context) (*Result, error) {
	return f(ctx)
}

// Middleware wraps a handler
type Middleware func(Handler) Handler

// Result is what a handler wants sent back. A nil Result sends nothing.
type Result struct {
	// Content is the reply text
	Content string

	// Err is the error the reply was rendered from, kept for outer middleware
	Err error
}

// NewResult creates a reply with the given content
func NewResult(content string) *Result {
	return &Result{Content: content}
}

// chain applies middleware so the first one given runs outermost
func chain(h Handler, middleware []Middleware) Handler {
	wrapped := h
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = middleware[i](wrapped)
	}
	return wrapped
}
