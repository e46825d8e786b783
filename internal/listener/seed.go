package listener

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"survey-activation-engine/internal/engine"
	"survey-activation-engine/internal/storage"
)

// ApplySeed saves every survey in the JSON array at path into st and
// rebuilds the snapshot. A file that fails to parse saves nothing; a failed
// save stops the loop and leaves the surveys before it saved, reporting how
// many were written.
func ApplySeed(ctx context.Context, path string, st storage.Store, eng *engine.ActivationEngine) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	recs, err := storage.ParseSurveys(b)
	if err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}
	for i, r := range recs {
		if err := st.SaveSurvey(ctx, r); err != nil {
			return i, fmt.Errorf("save seeded survey %s (%d of %d already saved): %w", r.ID, i, len(recs), err)
		}
	}
	if err := eng.BuildSnapshot(ctx, st); err != nil {
		return len(recs), err
	}
	return len(recs), nil
}

// WatchSeedFile applies the seed file once, then again every time it is
// written or replaced. It blocks until ctx is done. ready, if non-nil, is
// closed once the watch is in place.
func WatchSeedFile(ctx context.Context, path string, st storage.Store, eng *engine.ActivationEngine, ready chan<- struct{}) error {
	if n, err := ApplySeed(ctx, path, st, eng); err != nil {
		log.Error().Err(err).Str("path", path).Msg("initial seed")
	} else {
		log.Info().Int("surveys", n).Str("path", path).Msg("seed applied")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// watch the directory: editors often replace the file instead of writing it
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve seed path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			n, err := ApplySeed(ctx, path, st, eng)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("reapply seed")
				continue
			}
			log.Info().Int("surveys", n).Str("path", path).Msg("seed reapplied")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("seed watcher")
		}
	}
}
