package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchSettle = 500 * time.Millisecond

// Watch re-ingests files in dir that are created or rewritten, until ctx is
// cancelled. Events are debounced so a file is ingested once its writes
// settle. Subdirectories are not watched.
func (s *Service) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.logger.Printf("watching %s for %s", dir, s.loader.Glob)

	settle := s.watchSettle
	if settle <= 0 {
		settle = defaultWatchSettle
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if match, _ := filepath.Match(s.loader.Glob, filepath.Base(event.Name)); !match || DetectFormat(event.Name) != FormatPDF {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(settle)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			clear(pending)

			for _, path := range paths {
				written, err := s.IngestFile(ctx, path)
				if err != nil {
					s.logger.Printf("ingest failed for %s: %v", path, err)
					continue
				}
				s.logger.Printf("re-ingested %s (%d chunks)", path, written)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Printf("watch error: %v", err)
		}
	}
}
