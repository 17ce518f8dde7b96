package delivery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"MCNews/internal/ports"
)

// Router implements ports.Deliverer by resolving each destination to a registered channel.
type Router struct {
	registry *Registry
	log      zerolog.Logger
}

var _ ports.Deliverer = (*Router)(nil)

// NewRouter wires the channel registry.
func NewRouter(reg *Registry, log zerolog.Logger) *Router {
	return &Router{registry: reg, log: log}
}

// Deliver sends text to one destination through its channel.
func (r *Router) Deliver(ctx context.Context, destination, text string) error {
	if r.registry == nil {
		return fmt.Errorf("channel registry is not configured")
	}

	name, target, err := ParseDestination(destination)
	if err != nil {
		return err
	}

	ch, err := r.registry.Resolve(name)
	if err != nil {
		return fmt.Errorf("destination %s: %w", destination, err)
	}

	r.log.Debug().Str("channel", name).Str("target", target).Int("bytes", len(text)).Msg("deliver")
	if err := ch.Send(ctx, target, text); err != nil {
		return fmt.Errorf("send via %s: %w", name, err)
	}
	return nil
}
