package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler methods for routerHandlers

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.relay.Snapshot()
	if !ok {
		writeError(w, "Relay stopped", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snapshot)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.relay.Snapshot()
	if !ok {
		writeError(w, "Relay stopped", http.StatusServiceUnavailable)
		return
	}

	playing := 0
	for _, p := range snapshot.Players {
		if !p.IsGameOver {
			playing++
		}
	}

	stats := map[string]any{
		"playerCount":     len(snapshot.Players),
		"playingCount":    playing,
		"recentObstacles": snapshot.RecentObstacles,
		"relayed":         snapshot.Relayed,
		"rateLimit":       h.rateLimiter.GetStats(),
	}
	if h.hub != nil {
		stats["connections"] = h.hub.ClientCount()
		stats["connectionsRejected"] = h.hub.Limiter().Rejected()
	}
	if h.journal != nil {
		stats["journal"] = h.journal.Stats()
		UpdateJournalStats(h.journal.Written(), h.journal.Dropped())
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.relay.Snapshot(); !ok {
		writeError(w, "Relay stopped", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *routerHandlers) handleSocketIO(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.hub.HandleWebSocket(w, r)
		return
	}
	// No long-polling fallback, websocket transport only
	writeError(w, "use websocket", http.StatusNotFound)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
