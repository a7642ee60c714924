package sessions

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically removes expired sessions and abandoned login requests.
type Sweeper struct {
	repo     Repo
	interval time.Duration
	nowTime  func() time.Time
}

// NewSweeper constructs the sweep loop. A non-positive interval defaults to one hour.
func NewSweeper(repo Repo, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{repo: repo, interval: interval, nowTime: time.Now}
}

// WithNowTime replaces the clock, for tests.
func (s *Sweeper) WithNowTime(now func() time.Time) *Sweeper {
	s.nowTime = now
	return s
}

// SweepOnce runs a single sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	res, err := s.repo.DeleteExpired(ctx, s.nowTime())
	if err != nil {
		return res, err
	}
	if res.Sessions > 0 || res.LoginRequests > 0 {
		log.Info().Int64("sessions", res.Sessions).Int64("login_requests", res.LoginRequests).Msg("swept expired rows")
	}
	return res, nil
}

// Run sweeps immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil {
			log.Err(err).Msg("sweep failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
