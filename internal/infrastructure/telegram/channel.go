package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"MCNews/internal/delivery"
)

const textLimit = 4000

// Target addresses a chat and optional forum topic.
type Target struct {
	ChatID   int64
	Username string
	ThreadID int
}

// Recipient implements tele.Recipient.
func (t Target) Recipient() string {
	if t.Username != "" {
		return t.Username
	}
	return strconv.FormatInt(t.ChatID, 10)
}

// String renders the whitelist form of the target.
func (t Target) String() string {
	s := delivery.ChannelTelegram + ":" + t.Recipient()
	if t.ThreadID != 0 {
		s += ":" + strconv.Itoa(t.ThreadID)
	}
	return s
}

// ParseTarget reads "<chat>[:<thread>]" where chat is a numeric id or @username.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("empty telegram target")
	}

	chat, thread, hasThread := strings.Cut(s, ":")
	var t Target
	if strings.HasPrefix(chat, "@") {
		if len(chat) < 2 {
			return Target{}, fmt.Errorf("invalid telegram username %q", chat)
		}
		t.Username = chat
	} else {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return Target{}, fmt.Errorf("invalid telegram chat id %q: %w", chat, err)
		}
		t.ChatID = id
	}

	if hasThread {
		id, err := strconv.Atoi(thread)
		if err != nil {
			return Target{}, fmt.Errorf("invalid telegram thread id %q: %w", thread, err)
		}
		t.ThreadID = id
	}
	return t, nil
}

// Channel delivers whitelist messages through the bot.
type Channel struct {
	bot *Bot
}

var _ delivery.Channel = (*Channel)(nil)

// NewChannel wraps a connected bot.
func NewChannel(bot *Bot) *Channel {
	return &Channel{bot: bot}
}

func (c *Channel) Name() string { return delivery.ChannelTelegram }

// Send splits text into 4000-rune chunks and sends them in order.
func (c *Channel) Send(ctx context.Context, target, text string) error {
	to, err := ParseTarget(target)
	if err != nil {
		return err
	}

	opts := &tele.SendOptions{
		ThreadID:              to.ThreadID,
		DisableWebPagePreview: true,
	}
	for _, chunk := range splitText(text, textLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.bot.bot.Send(to, chunk, opts); err != nil {
			return fmt.Errorf("send to %s: %w", to, err)
		}
	}
	return nil
}

// splitText cuts s into chunks of at most limit runes, preferring newline
// boundaries that keep each chunk at least a third of the limit.
func splitText(s string, limit int) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
