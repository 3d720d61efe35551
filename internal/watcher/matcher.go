package watcher

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// matchesInventory reports whether ev means new content at path. Removal
// and chmod are ignored; a replaced file shows up as Create.
func matchesInventory(ev fsnotify.Event, path string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return filepath.Clean(name) == filepath.Clean(path)
}
