package httpapi

import (
	"net/http"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/types"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	rs, err := s.records.List(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recordsToWire(rs))
}

func (s *Server) handleSearchRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rs, err := s.records.Search(r.Context(), r.PathValue("id"), store.RecordQuery{
		PersonalID:    q.Get("personal_id"),
		Tower:         q.Get("tower"),
		Unit:          q.Get("unit"),
		ControlNumber: q.Get("control_number"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recordsToWire(rs))
}

func (s *Server) handleCheckControlNumber(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rec, inUse, err := s.records.ControlNumberInUse(r.Context(), r.PathValue("id"), q.Get("control_number"), q.Get("exclude_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := types.ControlNumberCheck{InUse: inUse}
	if inUse {
		resp.RecordID, resp.Name = rec.ID, rec.Name
	}
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.records.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recordToWire(rec))
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateRecordRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	rec, err := s.records.Update(r.Context(), r.PathValue("id"), service.RecordPatch{
		EntryLog:        req.EntryLog,
		ControlNumber:   req.ControlNumber,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recordToWire(rec))
}

func (s *Server) handleRegisterAttendance(w http.ResponseWriter, r *http.Request) {
	var req types.AttendanceRequest
	if r.ContentLength != 0 && !decodeOrFail(w, r, &req) {
		return
	}

	reg, err := s.attendance.Register(r.Context(), r.PathValue("id"), req.ControlNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, types.AttendanceResponse{
		Record:   recordToWire(reg.Record),
		Activity: reg.Activity,
	})
}
