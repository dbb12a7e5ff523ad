package services

import (
	"context"
	"fmt"
	"time"
)

// CleanupService purges verification codes that can no longer be used.
// Refresh token records are kept as an audit trail; they only disappear
// together with their user.
type CleanupService struct {
	st        Storage
	retention time.Duration
	opts      options
}

func NewCleanupService(st Storage, retention time.Duration, opts ...Option) *CleanupService {
	return &CleanupService{st: st, retention: retention, opts: buildOptions("cleanup", opts)}
}

// Purge deletes codes that expired more than the retention window ago.
func (s *CleanupService) Purge(ctx context.Context) error {
	cutoff := s.opts.now().Add(-s.retention)

	codes, err := s.st.Repos.VerificationCodes(s.st.DB).DeleteStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge verification codes: %w", err)
	}

	s.opts.logger.Info(ctx, "stale verification codes purged", "count", codes)
	return nil
}
