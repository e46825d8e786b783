package listener

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"survey-activation-engine/internal/engine"
)

// StartRefresher rebuilds the snapshot right away and then every interval
// until ctx is done. It returns immediately.
func StartRefresher(ctx context.Context, src engine.Source, eng *engine.ActivationEngine, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		refresh := func() {
			if err := eng.BuildSnapshot(ctx, src); err != nil {
				log.Error().Err(err).Msg("periodic snapshot refresh")
			}
		}
		refresh()

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				refresh()
			}
		}
	}()
}
