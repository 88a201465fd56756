package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskio/taskio-web/pkg/logger"
)

// DefaultJanitorSpec runs the sweep every ten minutes.
const DefaultJanitorSpec = "@every 10m"

// expiredPurger is implemented by stores that do not expire records on their
// own. Redis relies on key TTLs instead.
type expiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionJanitor periodically tears down sessions whose backend token expired.
type SessionJanitor struct {
	sessions *SessionManager
	store    SessionStore
	spec     string

	cronScheduler *cron.Cron
}

func NewSessionJanitor(sessions *SessionManager, store SessionStore, spec string) *SessionJanitor {
	if spec == "" {
		spec = DefaultJanitorSpec
	}
	return &SessionJanitor{sessions: sessions, store: store, spec: spec}
}

func (j *SessionJanitor) StartScheduler() error {
	j.cronScheduler = cron.New(
		cron.WithLogger(logger.CronLogger()),
		cron.WithChain(cron.Recover(logger.CronLogger()), cron.SkipIfStillRunning(logger.CronLogger())),
	)
	if _, err := j.cronScheduler.AddFunc(j.spec, j.Run); err != nil {
		return err
	}
	j.cronScheduler.Start()
	logger.Info().Str("spec", j.spec).Msg("session janitor scheduled")
	return nil
}

func (j *SessionJanitor) StopScheduler() {
	if j.cronScheduler != nil {
		<-j.cronScheduler.Stop().Done()
	}
}

// Run performs one sweep.
func (j *SessionJanitor) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	destroyed := j.sessions.Sweep(ctx)

	var purged int64
	if p, ok := j.store.(expiredPurger); ok {
		n, err := p.PurgeExpired(ctx, time.Now())
		if err != nil {
			logger.Warn().Err(err).Msg("failed to purge expired sessions")
		}
		purged = n
	}
	if destroyed > 0 || purged > 0 {
		logger.Info().Int("destroyed", destroyed).Int64("purged", purged).Msg("expired sessions swept")
	}
}
