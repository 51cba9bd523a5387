package server

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// clients idle this long lose their rate limit bucket
	limiterIdle = 10 * time.Minute
	// months of cache statistics to keep
	statsRetainMonths = 12
)

// RunMaintenance periodically purges stale 404 log entries, idle rate
// limiter buckets and old monthly statistics until ctx is cancelled
func (s *Server) RunMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.maintain()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) maintain() {
	purged, err := s.store.PurgeNotFound(s.cfg.NotFound.Retention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge 404 log")
	}
	pruned := s.limiter.Prune(limiterIdle)
	s.monthly.Cleanup(statsRetainMonths)

	log.Debug().
		Int64("not_found_purged", purged).
		Int("limiter_pruned", pruned).
		Msg("Maintenance completed")
}
