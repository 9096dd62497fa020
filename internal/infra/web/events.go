package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"jdcrawler-dashboard/internal/infra/querycache"
)

// handleEvents streams changed cache keys as server-sent events. The optional
// "prefix" query parameter, repeatable, narrows the key feed. Crawl countdown
// changes are always sent as "countdown" events carrying the display text.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var prefixes []querycache.Key
	for _, p := range r.URL.Query()["prefix"] {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, querycache.Key(p))
		}
	}
	sub := s.dash.Events(prefixes...)
	defer sub.Close()
	ticks, stopTicks := s.dash.Countdowns()
	defer stopTicks()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case key, ok := <-sub.C:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", key.Kind(), key)
			flusher.Flush()
		case cd := <-ticks:
			fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", cd.Text)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
