package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/logger"
)

type TokenPurgeRepository interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// TokenCleaner periodically deletes expired and revoked refresh tokens.
type TokenCleaner struct {
	tokens TokenPurgeRepository
	cron   *cron.Cron
}

func NewTokenCleaner(tokens TokenPurgeRepository, schedule string) (*TokenCleaner, error) {
	if schedule == "" {
		return nil, errors.New("purge schedule must not be empty")
	}
	tc := &TokenCleaner{tokens: tokens, cron: cron.New()}
	if _, err := tc.cron.AddFunc(schedule, tc.purge); err != nil {
		return nil, errors.Wrapf(err, "invalid purge schedule %q", schedule)
	}
	tc.cron.Start()
	log.Infof("refresh token cleaner started, schedule: %s", schedule)
	return tc, nil
}

// Stop halts the schedule and waits for a running purge to finish.
func (tc *TokenCleaner) Stop() {
	<-tc.cron.Stop().Done()
}

func (tc *TokenCleaner) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := tc.tokens.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("Failed to purge refresh tokens: %v", err)
		return
	}
	log.Infof("Refresh tokens purged at %v, affected rows: %v", time.Now(), n)
}
