package mocservice

import (
	"context"
	"log/slog"
	"time"
)

// DefaultDebounce is the quiet period Publisher waits for before publishing.
const DefaultDebounce = 2 * time.Second

// Publisher turns vault change notifications into debounced publishes.
type Publisher struct {
	svc       *Service
	delay     time.Duration
	logger    *slog.Logger
	onPublish func(*Result)
	trigger   chan struct{}
}

// NewPublisher returns a Publisher for svc. onPublish (if non-nil) is called
// after every publish that rewrote the output note.
func NewPublisher(svc *Service, delay time.Duration, logger *slog.Logger, onPublish func(*Result)) *Publisher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Publisher{
		svc:       svc,
		delay:     delay,
		logger:    logger,
		onPublish: onPublish,
		trigger:   make(chan struct{}, 1),
	}
}

// Notify records a change to path. Changes to the output note are ignored
// so that a publish never schedules another one. Notify never blocks.
func (p *Publisher) Notify(path string) {
	if path == p.svc.Output() {
		return
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run publishes once the notifications have been quiet for the debounce
// delay, until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	timer := time.NewTimer(p.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.trigger:
			timer.Reset(p.delay)
		case <-timer.C:
			res, err := p.svc.Publish(ctx, "")
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.Error("publisher: publish failed", slog.String("error", err.Error()))
				continue
			}
			if res.Written && p.onPublish != nil {
				p.onPublish(res)
			}
		}
	}
}
