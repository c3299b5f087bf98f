package commands

import (
	"context"
	"regexp"
	"sync"

	gameService "github.com/KirkDiggler/rpg-helper-bot/internal/services/game"
	"github.com/KirkDiggler/rpg-helper-bot/internal/uuid"
	"go.uber.org/zap"
)

// CommandLoad is the only command accepted before a game is loaded
const CommandLoad = "load"

// commandPattern takes a single line; one trailing newline is tolerated
var commandPattern = regexp.MustCompile(`^!([a-zA-Z0-9_\-]+?)\s+(.*)\n?$`)

// Router turns raw chat text into replies
type Router struct {
	mu         sync.RWMutex
	handlers   map[string]Handler
	middleware []Middleware
	root       Handler
}

// RouterConfig holds the collaborators of the default router
type RouterConfig struct {
	Service       gameService.Service // Required
	Logger        *zap.Logger         // Optional
	UUIDGenerator uuid.Generator      // Optional
	Metrics       MetricsCollector    // Optional
}

// NewRouter creates a router with no commands or middleware
func NewRouter() *Router {
	r := &Router{
		handlers: make(map[string]Handler),
	}
	r.root = HandlerFunc(r.dispatch)
	return r
}

// New creates the bot's router: load, character and roll behind the
// standard middleware chain
func New(cfg *RouterConfig) *Router {
	if cfg == nil || cfg.Service == nil {
		panic("game service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gen := cfg.UUIDGenerator
	if gen == nil {
		gen = uuid.NewRequestIDGenerator()
	}

	r := NewRouter()
	r.Use(LoggingMiddleware(logger, gen))
	r.Use(ErrorMiddleware(logger))
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics, r.Handles))
	}
	r.Use(RecoveryMiddleware(logger))
	r.Use(RequireGameMiddleware(cfg.Service))

	r.Command(CommandLoad, NewLoadHandler(cfg.Service))
	r.Command(CommandCharacter, NewCharacterHandler(cfg.Service))
	r.Command(CommandRoll, NewRollHandler(cfg.Service))

	return r
}

// Use adds middleware around every command. The first added runs outermost.
func (r *Router) Use(middleware ...Middleware) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middleware = append(r.middleware, middleware...)
	r.root = chain(HandlerFunc(r.dispatch), r.middleware)
	return r
}

// Command registers a handler for a command name
func (r *Router) Command(name string, handler Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[name] = handler
	return r
}

// Handles reports whether a handler is registered for the command name
func (r *Router) Handles(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[name]
	return ok
}

// CommandFunc registers a handler function for a command name
func (r *Router) CommandFunc(name string, fn func(*Context) (*Result, error)) *Router {
	return r.Command(name, HandlerFunc(fn))
}

// HandleCommand is the whole inbound surface of the bot. It returns false
// when nothing should be sent back.
func (r *Router) HandleCommand(ctx context.Context, userID, text string) (string, bool) {
	match := commandPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	r.mu.RLock()
	root := r.root
	r.mu.RUnlock()

	result, err := root.Handle(NewContext(ctx, userID, match[1], match[2]))
	if err != nil {
		return userMessage(err), true
	}
	if result == nil {
		return "", false
	}

	return result.Content, true
}

func (r *Router) dispatch(ctx *Context) (*Result, error) {
	r.mu.RLock()
	handler, ok := r.handlers[ctx.Command]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	return handler.Handle(ctx)
}
