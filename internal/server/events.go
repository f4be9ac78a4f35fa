package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/matzehuels/patternmark/pkg/store"
)

// eventBuffer is the number of snapshots queued per client. A client that
// falls further behind loses intermediate snapshots; the next one it
// receives is still complete.
const eventBuffer = 64

// keepAlive is the interval between SSE comment frames on an idle stream.
var keepAlive = 30 * time.Second

// events streams one "state" event per store notification, preceded by the
// current state.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	snapshots := make(chan store.State, eventBuffer)
	unsubscribe := s.sess.Store.Subscribe(func(st store.State) {
		select {
		case snapshots <- st:
		default:
			s.logger.Warn("dropping state event for slow client", "remote", r.RemoteAddr)
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, s.sess.Store.State()); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream not flushable", "err", err)
		return
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-snapshots:
			if err := writeEvent(w, st); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, st store.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return err
}
