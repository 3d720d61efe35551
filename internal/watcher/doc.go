// Package watcher keeps the app inventory fresh while permscope runs.
//
// A Watcher refreshes its target when the inventory dump changes on disk
// (fsnotify on the file's directory, so editors that replace the file are
// seen too) and on a cron schedule. Bursts of triggers are debounced into
// a single refresh.
//
// Example usage:
//
//	w, err := watcher.New(appSource, watcher.Options{
//		Path:     "/data/inventory.yaml",
//		Schedule: "@every 15m",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	// Or start as daemon
//	if err := watcher.StartDaemon("/tmp/permscope.pid", "/tmp/permscope.log", nil); err != nil {
//		log.Fatal(err)
//	}
package watcher
