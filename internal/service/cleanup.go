package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thepom/thepom/internal/store"
)

// SessionCleaner removes expired session rows. It can run once, from a
// scheduler such as cron, or on a ticker inside the server process.
type SessionCleaner struct {
	store  *store.Store
	logger *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSessionCleaner(st *store.Store, logger *slog.Logger) *SessionCleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCleaner{store: st, logger: logger}
}

// Run deletes every session whose expiry has passed and returns the count.
// A missing table or a database error is logged and reported as zero
// deletions. Anything else, such as a cancelled context, is returned.
func (c *SessionCleaner) Run(ctx context.Context) (int64, error) {
	n, err := c.store.DeleteExpiredSessions(ctx, c.store.Now())
	switch {
	case err == nil:
		if n > 0 {
			c.logger.Info("expired sessions removed", "count", n)
		}
		return n, nil
	case store.IsTableMissing(err):
		c.logger.Warn("admin_sessions table not found, skipping cleanup")
		return 0, nil
	case store.IsDatabaseError(err):
		c.logger.Warn("session cleanup failed", "error", err)
		return 0, nil
	default:
		return 0, fmt.Errorf("session cleanup: %w", err)
	}
}

// RevokeAll deletes every session of one admin, forcing it to log in again.
// Unlike Run, errors are returned as is.
func (c *SessionCleaner) RevokeAll(ctx context.Context, adminID int64) (int64, error) {
	n, err := c.store.DeleteSessionsByAdmin(ctx, adminID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	c.logger.Info("sessions revoked", "admin_id", adminID, "count", n)
	return n, nil
}

// Start runs the cleanup every interval until Stop is called. Non-blocking.
func (c *SessionCleaner) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := c.Run(ctx); err != nil && ctx.Err() == nil {
					c.logger.Error("session sweep failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the background loop started by Start and waits for it.
func (c *SessionCleaner) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}
