package discord_test

import (
	"context"
	"errors"
	"testing"

	"github.com/KirkDiggler/rpg-helper-bot/internal/handlers/discord"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type sent struct {
	channelID string
	content   string
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, sent{channelID: channelID, content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, f.err
}

type echoCommands struct {
	calls []string
}

func (e *echoCommands) HandleCommand(_ context.Context, userID, text string) (string, bool) {
	e.calls = append(e.calls, userID+":"+text)
	if text == "hello" {
		return "", false
	}
	return "<@" + userID + "> " + text, true
}

func message(authorID, content string, bot bool) *discordgo.Message {
	return &discordgo.Message{
		ChannelID: "chan-1",
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Bot: bot},
	}
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name      string
		msg       *discordgo.Message
		wantCalls int
		wantSent  []sent
	}{
		{
			name:      "reply is posted to the same channel",
			msg:       message("42", "!roll d20", false),
			wantCalls: 1,
			wantSent:  []sent{{channelID: "chan-1", content: "<@42> !roll d20"}},
		},
		{
			name:      "no reply",
			msg:       message("42", "hello", false),
			wantCalls: 1,
		},
		{
			name: "own messages are ignored",
			msg:  message("self", "!roll d20", false),
		},
		{
			name: "other bots are ignored",
			msg:  message("7", "!roll d20", true),
		},
		{
			name: "no author",
			msg:  &discordgo.Message{Content: "!roll d20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &echoCommands{}
			sender := &fakeSender{}
			h := discord.NewHandler(&discord.HandlerConfig{Commands: cmds})

			h.HandleMessage(context.Background(), sender, "self", tt.msg)

			assert.Len(t, cmds.calls, tt.wantCalls)
			assert.Equal(t, tt.wantSent, sender.sent)
		})
	}
}

func TestHandleMessage_SendFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := discord.NewHandler(&discord.HandlerConfig{
		Commands: &echoCommands{},
		Logger:   zap.New(core),
	})

	h.HandleMessage(context.Background(), &fakeSender{err: errors.New("rate limited")}, "self", message("42", "!roll d20", false))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "failed to send reply", entry.Message)
	assert.Equal(t, "chan-1", entry.ContextMap()["channel_id"])
}

func TestNewHandler_RequiresCommands(t *testing.T) {
	assert.Panics(t, func() {
		discord.NewHandler(&discord.HandlerConfig{Token: "t"})
	})
}
