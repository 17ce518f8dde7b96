package telegram

import (
	"context"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

const commandTimeout = 45 * time.Second

// CommandService answers the /mcnews subcommands.
type CommandService interface {
	Status(ctx context.Context) string
	Latest(ctx context.Context) string
	AddWhitelist(id string) string
	RemoveWhitelist(id string) string
	ListWhitelist() string
	Help() string
}

// RegisterCommands installs the /mcnews handler.
func (b *Bot) RegisterCommands(svc CommandService) {
	b.bot.Handle("/mcnews", func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || msg.Chat == nil {
			return nil
		}

		sub := ""
		if args := c.Args(); len(args) > 0 {
			sub = strings.ToLower(args[0])
		}
		session := SessionOf(msg).String()

		b.log.Debug().Str("sub", sub).Str("session", session).Msg("command received")
		reply := dispatchCommand(svc, sub, session)

		return c.Send(reply, &tele.SendOptions{
			ThreadID:              msg.ThreadID,
			DisableWebPagePreview: true,
		})
	})
}

func dispatchCommand(svc CommandService, sub, session string) string {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch sub {
	case "status":
		return svc.Status(ctx)
	case "latest":
		return svc.Latest(ctx)
	case "add":
		return svc.AddWhitelist(session)
	case "remove":
		return svc.RemoveWhitelist(session)
	case "list":
		return svc.ListWhitelist()
	default:
		return svc.Help()
	}
}

// SessionOf returns the whitelist target of the chat (and topic) a message came from.
func SessionOf(msg *tele.Message) Target {
	t := Target{ChatID: msg.Chat.ID}
	if msg.ThreadID != 0 {
		t.ThreadID = msg.ThreadID
	}
	return t
}
