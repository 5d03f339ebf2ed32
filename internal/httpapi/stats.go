package httpapi

import (
	"net/http"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/types"
)

func (s *Server) handleHourlyStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.stats.HourlyEntryCounts(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, types.HourlyCounts{Counts: counts})
}

func (s *Server) handleQuorumStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.QuorumStats(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, quorumToWire(st))
}
