package delivery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"MCNews/internal/domain"
)

// Channel names used for destination routing.
const (
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"
)

// Channel delivers text to targets of one transport (Telegram, webhook, ...).
type Channel interface {
	Name() string
	Send(ctx context.Context, target, text string) error
}

// Registry keeps a mapping from channel names to their implementations.
type Registry struct {
	channels map[string]Channel
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: map[string]Channel{}}
}

// Register adds or replaces a channel implementation.
func (r *Registry) Register(ch Channel) {
	if ch == nil {
		return
	}
	if r.channels == nil {
		r.channels = map[string]Channel{}
	}
	r.channels[ch.Name()] = ch
}

// Resolve returns a channel by name.
func (r *Registry) Resolve(name string) (Channel, error) {
	if ch, ok := r.channels[name]; ok {
		return ch, nil
	}
	return nil, fmt.Errorf("%w: channel %s is not registered", domain.ErrDeliveryUnavailable, name)
}

// ParseDestination splits a whitelist entry into channel and target.
//
//	https://hooks.example/x  -> webhook, https://hooks.example/x
//	telegram:-1001:42        -> telegram, -1001:42
//	-1001 / -1001:42 / @chan -> telegram, unchanged
//	name:rest                -> name, rest
func ParseDestination(dest string) (channel, target string, err error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", "", domain.ErrEmptyDestination
	}

	lower := strings.ToLower(dest)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ChannelWebhook, dest, nil
	}

	head, rest, ok := strings.Cut(dest, ":")
	if !ok || strings.HasPrefix(head, "@") || isInteger(head) {
		return ChannelTelegram, dest, nil
	}
	if rest == "" {
		return "", "", fmt.Errorf("%w: %s has no target", domain.ErrUnknownDestination, dest)
	}
	return strings.ToLower(head), rest, nil
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
