package aihttpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ManagementHandler returns the HTTP API used to inspect and reset the
// server: the live sitemap, request counters, and a full cache flush.
// It is served on a separate port from the AI front-end and is meant to
// stay private.
func (s *Server) ManagementHandler() http.Handler {
	r := chi.NewRouter()

	r.Get("/sitemap", func(w http.ResponseWriter, req *http.Request) {
		keys := s.sitemap.Keys()
		if keys == nil {
			keys = []string{}
		}
		writeJSON(w, map[string]any{
			"count": len(keys),
			"keys":  keys,
		})
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{
			"requests":      s.stats.Snapshot(),
			"sitemapSize":   s.sitemap.Len(),
			"rateTableSize": s.rate.Len(),
		})
	})

	r.Delete("/cache", func(w http.ResponseWriter, req *http.Request) {
		// artifacts go first: dropping the tables before a failed
		// store clear would leave files no sweep can ever reach
		if err := s.store.Clear(); err != nil {
			s.log.Error().Err(err).Msg("Could not clear artifact store")
			http.Error(w, "could not clear artifact store", http.StatusInternalServerError)
			return
		}
		s.sitemap.Clear()
		s.rate.Clear()
		s.log.Info().Msg("Sitemap cleared")
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
