package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the token file for external changes until ctx is cancelled.
// Another process removing the file (an explicit logout elsewhere) forces the
// session to anonymous; a rewrite (a fresh login elsewhere) adopts the new
// token without revalidation. Watching the directory instead of the file
// itself survives the atomic rename Save performs.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create token watcher: %w", err)
	}

	dir := filepath.Dir(s.file.Path())
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch token directory: %w", err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.file.Path() {
					continue
				}
				s.handleTokenFileEvent(event)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func (s *Store) handleTokenFileEvent(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		s.logger.Debug().Str("event", event.Op.String()).Msg("token file removed externally")
		s.ForceLogout()
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		token, issuedAt, ok, err := s.file.Load(s.now())
		if err != nil || !ok {
			return
		}
		s.mu.Lock()
		changed := token != s.token
		s.mu.Unlock()
		if changed {
			s.logger.Debug().Msg("token file rewritten externally, adopting")
			s.settle(Authenticated, token, issuedAt, nil)
		}
	}
}
