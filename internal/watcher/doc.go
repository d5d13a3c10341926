// Package watcher keeps a locally installed package in sync with its source
// directory.
//
// A Watcher registers every non-excluded directory of the source tree with
// fsnotify, collapses bursts of events into a single callback after a quiet
// period, and follows directories created while it runs. The callback is
// normally the installer's Update, which is idempotent, so a spurious event
// costs one tree comparison.
//
// Example usage:
//
//	w, err := watcher.New(src, build.LocalExclusions(), func() error {
//		_, err := inst.Update("app")
//		return err
//	})
//	if err != nil {
//		return err
//	}
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
//
// The daemon helpers run the same loop in a detached child process tracked
// by a PID file.
package watcher
