// Package notify sends the core's outbound messages through the transport
// adapter. Delivery is best-effort: failures are logged, never retried, and
// never propagate back into the scheduling core.
package notify

import (
	"context"

	"golang.org/x/time/rate"

	kit "remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type Config struct {
	// RatePerSec caps outbound sends. Default 3 (safe for Telegram per-chat limits).
	RatePerSec int
}

type Service struct {
	adapter kit.Adapter
	log     logx.Logger
	limiter *rate.Limiter
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 3
	}
	return &Service{
		adapter: adapter,
		log:     log,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

func (s *Service) Prompt(ctx context.Context, owner int64, text string) {
	s.send(ctx, owner, "prompt", text)
}

func (s *Service) PromptRetry(ctx context.Context, owner int64, text string) {
	s.send(ctx, owner, "retry", text)
}

func (s *Service) ConfirmCreated(ctx context.Context, owner int64, summary string) {
	s.send(ctx, owner, "confirm", summary)
}

func (s *Service) Deliver(ctx context.Context, owner int64, text string) {
	s.send(ctx, owner, "deliver", text)
}

func (s *Service) ListReply(ctx context.Context, owner int64, text string) {
	s.send(ctx, owner, "list", text)
}

func (s *Service) send(ctx context.Context, owner int64, kind, text string) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: owner}, text, &kit.SendOptions{DisablePreview: true})
	if err != nil {
		s.log.Warn("message send failed",
			logx.String("kind", kind),
			logx.Int64("chat_id", owner),
			logx.Err(err))
		return
	}
	s.log.Debug("message sent", logx.String("kind", kind), logx.Int64("chat_id", owner))
}
