// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colophon-press/colophon/lib/clock"
	"github.com/colophon-press/colophon/lib/config"
	"golang.org/x/sys/unix"
)

// debounceDelay is how long the watcher waits after the first
// relevant event before signalling, coalescing editor save bursts
// into one rebuild.
const debounceDelay = 200 * time.Millisecond

// watchMask covers content changes in a watched directory: writes,
// atomic renames in both directions, creations, deletions.
const watchMask = unix.IN_CLOSE_WRITE | unix.IN_MOVED_TO | unix.IN_MOVED_FROM |
	unix.IN_CREATE | unix.IN_DELETE

// watchSources installs inotify watches over every source directory
// the build reads — content, descriptors, templates, assets — and
// returns a channel that signals after each debounced batch of
// changes. Directories are watched rather than files so atomic
// renames (editor temp-file writes) are caught; subdirectories
// created later are picked up, but roots missing at start are not.
//
// The channel has capacity one and signals are coalesced: changes
// arriving while a rebuild is pending fold into the pending signal.
//
// The cleanup function stops the watcher and releases the inotify
// file descriptor. It must be called regardless of whether the
// channel ever fired, and is safe to call multiple times.
func watchSources(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (<-chan struct{}, func(), error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("inotify_init1: %w", err)
	}

	w := &watcher{
		fd:      fd,
		clk:     clk,
		logger:  logger,
		watches: make(map[int]string),
	}

	// Output-side directories are written during rebuilds; watching
	// them would make every rebuild trigger the next. The generated
	// partials live under content, so the skip list matters even
	// for default layouts.
	for _, dir := range []string{cfg.Paths.Generated, cfg.Paths.Output, cfg.Paths.Cache} {
		abs, err := filepath.Abs(dir)
		if err != nil {
			unix.Close(fd)
			return nil, nil, err
		}
		w.skip = append(w.skip, abs)
	}

	roots := []string{cfg.Paths.Content, cfg.DescriptorDir(), cfg.Paths.Templates, cfg.Paths.Assets}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if err := w.addTree(root); err != nil {
			unix.Close(fd)
			return nil, nil, err
		}
	}

	changed := make(chan struct{}, 1)
	stop := make(chan struct{})
	go w.run(changed, stop)

	cleanedUp := false
	cleanup := func() {
		if cleanedUp {
			return
		}
		cleanedUp = true
		close(stop)
	}
	return changed, cleanup, nil
}

// watcher owns one inotify file descriptor and the watch-descriptor
// bookkeeping needed to resolve event names to full paths.
type watcher struct {
	fd     int
	clk    clock.Clock
	logger *slog.Logger

	// skip lists absolute directories whose subtrees are ignored.
	skip []string

	// watches maps inotify watch descriptors to the directories
	// they cover. Only the run goroutine touches it after setup.
	watches map[int]string
}

// addTree installs watches on dir and every directory below it.
// A missing dir is not an error: templates and assets are optional.
func (w *watcher) addTree(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	return filepath.WalkDir(abs, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if p != abs && (w.skipDir(p) || strings.HasPrefix(entry.Name(), ".")) {
			return fs.SkipDir
		}
		return w.addWatch(p)
	})
}

func (w *watcher) addWatch(dir string) error {
	wd, err := unix.InotifyAddWatch(w.fd, dir, watchMask)
	if err != nil {
		return fmt.Errorf("inotify_add_watch on %s: %w", dir, err)
	}
	w.watches[wd] = dir
	return nil
}

// skipDir reports whether dir falls inside a skipped subtree.
func (w *watcher) skipDir(dir string) bool {
	for _, skip := range w.skip {
		if dir == skip || strings.HasPrefix(dir, skip+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// run polls the inotify fd for events until the stop channel closes.
// After a batch containing at least one relevant event, it sleeps for
// the debounce window, drains whatever accumulated, and signals.
//
// Uses poll(2) with a 100ms timeout so the goroutine remains
// responsive to the stop signal without burning CPU on a tight loop.
func (w *watcher) run(changed chan<- struct{}, stop <-chan struct{}) {
	defer unix.Close(w.fd)

	buffer := make([]byte, 64*1024)
	for {
		select {
		case <-stop:
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			w.logger.Error("source watcher poll failed", "error", err)
			return
		}
		if count == 0 {
			continue // timeout, check stop
		}

		bytesRead, err := unix.Read(w.fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			w.logger.Error("source watcher read failed", "error", err)
			return
		}

		if !w.handleEvents(buffer[:bytesRead]) {
			continue
		}

		// Debounce: editors save in bursts (temp file, rename,
		// attribute fixups). Wait out the burst, drain it, signal
		// once.
		w.clk.Sleep(debounceDelay)
		w.drain(buffer)

		select {
		case changed <- struct{}{}:
		default:
			// A rebuild is already pending; this batch folds in.
		}
	}
}

// handleEvents parses a buffer of raw inotify events, maintains the
// watch set, and reports whether any event touched a relevant source
// file. Hidden names and skipped subtrees are noise. Event layout
// (from inotify(7)):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null-padded to alignment
//	};
func (w *watcher) handleEvents(buffer []byte) bool {
	relevant := false
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		wd := int(int32(binary.NativeEndian.Uint32(buffer[offset : offset+4])))
		mask := binary.NativeEndian.Uint32(buffer[offset+4 : offset+8])
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		var name string
		if nameLength > 0 {
			name = nullTerminatedString(buffer[offset+unix.SizeofInotifyEvent : offset+eventSize])
		}
		offset += eventSize

		if mask&unix.IN_IGNORED != 0 {
			// The kernel dropped the watch (directory deleted or
			// moved away).
			delete(w.watches, wd)
			continue
		}
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		dir, ok := w.watches[wd]
		if !ok {
			continue
		}
		full := filepath.Join(dir, name)
		if w.skipDir(full) {
			continue
		}

		if mask&unix.IN_ISDIR != 0 && mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
			if err := w.addTree(full); err != nil {
				w.logger.Warn("watching new directory", "path", full, "error", err)
			}
		}
		relevant = true
	}
	return relevant
}

// drain consumes pending inotify events after the debounce sleep, so
// a whole save burst collapses into one signal. Drained events still
// go through handleEvents: a burst can include new directories that
// need watches.
func (w *watcher) drain(buffer []byte) {
	for {
		bytesRead, err := unix.Read(w.fd, buffer)
		if err != nil {
			// EAGAIN means the queue is empty.
			return
		}
		w.handleEvents(buffer[:bytesRead])
	}
}

// nullTerminatedString extracts a string from a null-padded byte
// slice, stopping at the first null byte.
func nullTerminatedString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
