package snapshot

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the live page from path whenever the file is written or
// replaced, until ctx is done. The parent directory is watched so editors
// that save by rename are seen too.
func (h *Host) Watch(ctx context.Context, path, url string) error {
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				p, err := readPage(path, url)
				if err != nil {
					h.log.WithError(err).Warn("reloading snapshot")
					continue
				}
				h.log.WithField("op", ev.Op.String()).Debug("snapshot changed")
				h.Replace(p)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				h.log.WithError(err).Warn("watcher error")
			}
		}
	}()
	return nil
}
