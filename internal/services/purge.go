package services

import (
	"context"
	"time"

	"authgate/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SessionPurger periodically deletes expired session rows. Rotation already
// rejects expired sessions lazily, so the schedule only controls how long
// dead rows linger.
type SessionPurger struct {
	sessions  *SessionService
	scheduler *cron.Cron
	interval  time.Duration
}

func NewSessionPurger(sessions *SessionService, interval time.Duration) *SessionPurger {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SessionPurger{
		sessions: sessions,
		interval: interval,
	}
}

func (p *SessionPurger) Start() {
	p.scheduler = cron.New()
	p.scheduler.Schedule(cron.Every(p.interval), cron.FuncJob(p.run))
	p.scheduler.Start()
	logger.Info().Dur("interval", p.interval).Msg("session purger started")
}

func (p *SessionPurger) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

func (p *SessionPurger) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := p.sessions.PurgeExpired(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("session purge failed")
		return
	}
	if purged > 0 {
		logger.Info().Int64("purged", purged).Msg("expired sessions removed")
	}
}
