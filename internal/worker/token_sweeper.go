package worker

import (
	"context"
	"log/slog"
	"time"
)

type StaleTokenDeleter interface {
	DeleteStalePushTokens(ctx context.Context, before time.Time) (int64, error)
}

// TokenSweeper periodically removes push tokens that have not been used
// within the staleness window.
type TokenSweeper struct {
	tokens     StaleTokenDeleter
	interval   time.Duration
	staleAfter time.Duration
	log        *slog.Logger
	now        func() time.Time
	done       chan struct{}
}

func NewTokenSweeper(tokens StaleTokenDeleter, interval, staleAfter time.Duration, log *slog.Logger) *TokenSweeper {
	return &TokenSweeper{
		tokens:     tokens,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

func (s *TokenSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.log.Error("sweep push tokens", "error", err)
				}
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.log.Info("token sweeper started", "interval", s.interval, "stale_after", s.staleAfter)
}

func (s *TokenSweeper) Stop() { close(s.done) }

func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteStalePushTokens(ctx, s.now().Add(-s.staleAfter))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("removed stale push tokens", "count", n)
	}
	return n, nil
}
