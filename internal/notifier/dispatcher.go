package notifier

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"MCNews/internal/domain"
	"MCNews/internal/ports"
)

const defaultRatePerSec = 20

// Dispatcher sends one message to every destination in order, isolating failures.
type Dispatcher struct {
	deliverer ports.Deliverer
	limiter   *rate.Limiter
	log       zerolog.Logger
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher paces sends at ratePerSec (20 when not positive).
func NewDispatcher(deliverer ports.Deliverer, ratePerSec float64, log zerolog.Logger) *Dispatcher {
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Dispatcher{
		deliverer: deliverer,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), burst),
		log:       log,
	}
}

// Dispatch never fails; per-destination errors are logged and reported.
func (d *Dispatcher) Dispatch(ctx context.Context, destinations []string, text string) domain.DispatchReport {
	var report domain.DispatchReport
	for _, dest := range destinations {
		if err := d.limiter.Wait(ctx); err != nil {
			report.Failed = append(report.Failed, domain.DeliveryFailure{Destination: dest, Err: err})
			d.log.Warn().Err(err).Str("destination", dest).Msg("delivery skipped")
			continue
		}
		if err := d.deliverer.Deliver(ctx, dest, text); err != nil {
			report.Failed = append(report.Failed, domain.DeliveryFailure{Destination: dest, Err: err})
			d.log.Error().Err(err).Str("destination", dest).Msg("delivery failed")
			continue
		}
		report.Delivered = append(report.Delivered, dest)
	}

	d.log.Info().
		Int("delivered", len(report.Delivered)).
		Int("failed", len(report.Failed)).
		Msg("dispatch finished")
	return report
}
