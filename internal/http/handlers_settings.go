package http

import (
	"net/http"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Budget.Settings(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewResponse().JSON(withEmptySlices(st)).Write(w)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in core.Settings
	if err := DecodeJSON(r, &in); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}

	saved, err := s.deps.Budget.SaveSettings(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewResponse().JSON(withEmptySlices(saved)).Write(w)
}

// withEmptySlices keeps a fresh install's lists as [] instead of null.
func withEmptySlices(st core.Settings) core.Settings {
	if st.FixedDeductions == nil {
		st.FixedDeductions = []core.FixedDeduction{}
	}
	if st.Categories == nil {
		st.Categories = []core.Category{}
	}
	return st
}
