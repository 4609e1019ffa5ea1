package http

import (
	"bytes"
	"net/http"
	"sync/atomic"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/export"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}

	items, err := s.deps.Expenses.List(r.Context(), p.Month, p.Year)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	NewResponse().JSON(items).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Expenses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := DecodeJSON(r, &in); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	e, err := s.deps.Expenses.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)

	log.FromContext(r.Context()).WithComponent(log.ComponentExpense).InfoContext(r.Context(), "Expense created",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(e.ID, e.Category, e.Amount.Cents).ToSlice()...)
	NewResponse().Status(http.StatusCreated).Header("Location", "/expenses/"+e.ID).JSON(e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := DecodeJSON(r, &in); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	e, err := s.deps.Expenses.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Expenses.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	items, err := s.deps.Expenses.List(r.Context(), p.Month, p.Year)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteExpenses(&buf, items); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewResponse().Attachment("text/csv; charset=utf-8", export.ExpensesFilename(p.Month, p.Year), buf.Bytes()).Write(w)
}
