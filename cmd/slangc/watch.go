package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/crtweb/slangcore/session"
)

// runWatch watches every directory the loader has resolved a file from and
// calls sess.Reload on any write, demonstrating the §6 Session.reload
// contract end to end: a changed include or shader source is picked up
// without restarting slangc. A failed reload logs and keeps serving the
// previous pipeline, matching Session's own failed-reload guarantee.
func runWatch(sess session.Session, loader *fsLoader, presetPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal("slangc: starting watcher", "err", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	addDirs := func() {
		for _, dir := range loader.VisitedDirs() {
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				log.Warn("slangc: watching directory", "dir", dir, "err", err)
				continue
			}
			watched[dir] = true
		}
	}
	addDirs()

	log.Info("slangc: watching for changes", "preset", presetPath, "dirs", len(watched))

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Info("slangc: change detected, reloading", "path", ev.Name)
			if err := sess.Reload(); err != nil {
				log.Error("slangc: reload failed, keeping previous pipeline", "err", err)
				continue
			}
			addDirs()
			fmt.Println(renderDiagnostics(presetPath, sess.Diagnostics()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error("slangc: watcher error", "err", err)
		}
	}
}
