package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/types"
)

const defaultMovementLimit = 50

func tupleFromQuery(r *http.Request) service.ProxyTuple {
	q := r.URL.Query()
	return service.ProxyTuple{
		Tower:         q.Get("tower"),
		Unit:          q.Get("unit"),
		ControlNumber: q.Get("control_number"),
	}
}

func hasUnit(t service.ProxyTuple) bool {
	return strings.TrimSpace(t.Tower) != "" || strings.TrimSpace(t.Unit) != ""
}

func (s *Server) handleSuggestProxies(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, r, "limit must be a non-negative integer")
		return
	}
	t := tupleFromQuery(r)
	rs, err := s.records.SuggestProxies(r.Context(), r.PathValue("id"), store.RecordQuery{
		Tower:         t.Tower,
		Unit:          t.Unit,
		ControlNumber: t.ControlNumber,
	}, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recordsToWire(rs))
}

func (s *Server) handleFindHolder(w http.ResponseWriter, r *http.Request) {
	t := tupleFromQuery(r)
	if !hasUnit(t) {
		badRequest(w, r, "tower or unit is required")
		return
	}
	h, found, err := s.proxies.FindHolder(r.Context(), r.PathValue("id"), t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := types.HolderResponse{Found: found}
	if found {
		resp.Record = recordPtr(h.Record)
		resp.Slot = ledger.ProxyKey(h.Slot)
	}
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleFindOwner(w http.ResponseWriter, r *http.Request) {
	t := tupleFromQuery(r)
	if !hasUnit(t) {
		badRequest(w, r, "tower or unit is required")
		return
	}
	owner, found, err := s.proxies.FindOriginalOwner(r.Context(), r.PathValue("id"), t.Tower, t.Unit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := types.OwnerResponse{Found: found}
	if found {
		resp.Record = recordPtr(owner)
	}
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleOwnerCoefficient(w http.ResponseWriter, r *http.Request) {
	t := tupleFromQuery(r)
	coef, found, err := s.records.OwnerCoefficient(r.Context(), r.PathValue("id"), t.Tower, t.Unit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, types.CoefficientResponse{Found: found, Coefficient: coef})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req types.TransferRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	t := service.ProxyTuple{Tower: req.Tower, Unit: req.Unit, ControlNumber: req.ControlNumber}
	switch {
	case strings.TrimSpace(req.DestinationID) == "":
		badRequest(w, r, "destination_id is required")
		return
	case !hasUnit(t):
		badRequest(w, r, "tower or unit is required")
		return
	}

	res, err := s.proxies.Transfer(r.Context(), r.PathValue("id"), req.DestinationID, t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, types.TransferResponse{
		Origin:      recordToWire(res.Origin),
		Destination: recordToWire(res.Destination),
		Slot:        res.Slot,
	})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req types.ReturnRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	t := service.ProxyTuple{Tower: req.Tower, Unit: req.Unit, ControlNumber: req.ControlNumber}
	switch {
	case strings.TrimSpace(req.CurrentID) == "":
		badRequest(w, r, "current_id is required")
		return
	case !hasUnit(t):
		badRequest(w, r, "tower or unit is required")
		return
	}

	res, err := s.proxies.Return(r.Context(), r.PathValue("id"), req.CurrentID, t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, types.ReturnResponse{
		Current:       recordToWire(res.Current),
		OriginalOwner: recordToWire(res.OriginalOwner),
		Slot:          res.Slot,
	})
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req types.DropRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	t := service.ProxyTuple{Tower: req.Tower, Unit: req.Unit, ControlNumber: req.ControlNumber}
	switch {
	case strings.TrimSpace(req.RecordID) == "":
		badRequest(w, r, "record_id is required")
		return
	case !hasUnit(t):
		badRequest(w, r, "tower or unit is required")
		return
	}

	rec, err := s.proxies.Drop(r.Context(), r.PathValue("id"), req.RecordID, t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recordToWire(rec))
}

func (s *Server) handleSetSlotControl(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 1 {
		badRequest(w, r, "slot must be a positive integer")
		return
	}
	var req types.SlotControlRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ControlNumber) == "" {
		badRequest(w, r, "control_number is required")
		return
	}

	rec, err := s.proxies.SetSlotControl(r.Context(), r.PathValue("id"), r.PathValue("record_id"), n, req.ControlNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recordToWire(rec))
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, r, "limit must be a non-negative integer")
		return
	}
	if limit == 0 {
		limit = defaultMovementLimit
	}
	ms, err := s.proxies.Movements(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, movementsToWire(ms))
}
