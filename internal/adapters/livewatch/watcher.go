// Package livewatch derives stream liveness from the media server's HLS
// output directory. It is the external poller the chat core expects: the
// room aggregate never probes files, it only receives SetLiveStatus.
package livewatch

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/domain"
)

// StatusSink receives liveness transitions. Satisfied by app.Gateway.
type StatusSink interface {
	SetLiveStatus(room domain.RoomID, live bool) bool
}

// Watcher marks the room live while a playlist exists in the media
// directory. fsnotify gives low latency; the periodic rescan heals missed
// events and rooms created after the stream went live.
type Watcher struct {
	dir      string
	room     domain.RoomID
	sink     StatusSink
	interval time.Duration

	mu   sync.Mutex
	live bool
}

func New(dir string, room domain.RoomID, sink StatusSink, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Watcher{dir: dir, room: room, sink: sink, interval: interval}
}

// Run blocks until ctx is done. A missing directory or a failed fsnotify
// setup degrades to polling only; liveness detection keeps working.
func (w *Watcher) Run(ctx context.Context) {
	var events chan fsnotify.Event
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Str("module", "livewatch").Msg("fsnotify unavailable, polling only")
	} else {
		defer fw.Close()
		if err := fw.Add(w.dir); err != nil {
			log.Warn().Err(err).Str("module", "livewatch").Str("dir", w.dir).Msg("watch add failed, polling only")
		} else {
			events = fw.Events
		}
	}

	log.Info().Str("module", "livewatch").Str("dir", w.dir).
		Str("room", string(w.room)).Msg("live watcher started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.recheck()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if isPlaylist(ev.Name) {
				w.recheck()
			}
		case <-ticker.C:
			w.recheck()
		}
	}
}

// recheck rescans the directory and re-applies the current state. The
// room suppresses no-op status broadcasts, so re-applying is quiet.
func (w *Watcher) recheck() {
	live := w.scan()

	w.mu.Lock()
	changed := live != w.live
	w.live = live
	w.mu.Unlock()

	if changed {
		log.Info().Str("module", "livewatch").Bool("live", live).Msg("liveness transition")
	}
	w.sink.SetLiveStatus(w.room, live)
}

func (w *Watcher) scan() bool {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && isPlaylist(e.Name()) {
			return true
		}
	}
	return false
}

func isPlaylist(name string) bool {
	return strings.HasSuffix(name, ".m3u8")
}
