package commands

import (
	"regexp"

	gameService "github.com/KirkDiggler/rpg-helper-bot/internal/services/game"
)

// Command names
const (
	CommandCharacter = "character"
	CommandRoll      = "roll"
)

var characterPattern = regexp.MustCompile(`^(add|del)\s+(.*)$`)

// NewLoadHandler handles `!load <game>`
func NewLoadHandler(svc gameService.Service) Handler {
	return HandlerFunc(func(ctx *Context) (*Result, error) {
		msg, err := svc.Load(ctx.Context, ctx.Args)
		if err != nil {
			return nil, err
		}
		return NewResult(msg), nil
	})
}

// NewCharacterHandler handles `!character add ...` and `!character del <name>`
func NewCharacterHandler(svc gameService.Service) Handler {
	return HandlerFunc(func(ctx *Context) (*Result, error) {
		match := characterPattern.FindStringSubmatch(ctx.Args)
		if match == nil {
			return nil, NewUserError("Did not understand " + ctx.Args + ".")
		}

		var (
			msg string
			err error
		)
		switch match[1] {
		case "add":
			msg, err = svc.AddCharacter(ctx.Context, ctx.UserID, match[2])
		case "del":
			msg, err = svc.DeleteCharacter(ctx.Context, ctx.UserID, match[2])
		}
		if err != nil {
			return nil, err
		}

		return NewResult(msg), nil
	})
}

// NewRollHandler handles `!roll <expression or macro>`
func NewRollHandler(svc gameService.Service) Handler {
	return HandlerFunc(func(ctx *Context) (*Result, error) {
		msg, err := svc.Roll(ctx.Context, ctx.UserID, ctx.Args)
		if err != nil {
			return nil, err
		}
		return NewResult(msg), nil
	})
}
