package httpapi

import (
	"net/http"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/types"
)

func (s *Server) handleCreateAssembly(w http.ResponseWriter, r *http.Request) {
	var req types.CreateAssemblyRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	a, err := s.assemblies.Create(r.Context(), createAssemblyFromWire(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, assemblyToWire(a))
}

func (s *Server) handleListAssemblies(w http.ResponseWriter, r *http.Request) {
	offset, ok := queryInt(r, "offset")
	if !ok {
		badRequest(w, r, "offset must be a non-negative integer")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, r, "limit must be a non-negative integer")
		return
	}

	q := r.URL.Query()
	page, total, err := s.assemblies.List(r.Context(), service.AssemblyQuery{
		Search: q.Get("search"),
		Status: q.Get("status"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items := make([]types.Assembly, len(page))
	for i, a := range page {
		items[i] = assemblyToWire(a)
	}
	respond(w, r, http.StatusOK, types.AssemblyList{Items: items, Total: total, Offset: offset, Limit: limit})
}

func (s *Server) handleGetAssembly(w http.ResponseWriter, r *http.Request) {
	a, err := s.assemblies.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, assemblyToWire(a))
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateStatusRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	a, err := s.assemblies.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, assemblyToWire(a))
}

func (s *Server) handleDeleteAssembly(w http.ResponseWriter, r *http.Request) {
	if err := s.assemblies.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
