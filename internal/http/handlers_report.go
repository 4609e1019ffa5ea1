package http

import (
	"bytes"
	"net/http"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/export"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
)

// handleCurrentReport answers 200 {"configured":false} before onboarding.
func (s *Server) handleCurrentReport(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Budget.Current(r.Context(), ParseDismissed(r.URL.Query()))
	if err != nil {
		s.fail(w, r, log.OpReport, err)
		return
	}
	NewResponse().JSON(d).Write(w)
}

func (s *Server) monthlyReport(w http.ResponseWriter, r *http.Request, op string) (core.Report, bool) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, op, err)
		return core.Report{}, false
	}
	rep, err := s.deps.Budget.Monthly(r.Context(), p.Month, p.Year)
	if err != nil {
		s.fail(w, r, op, err)
		return core.Report{}, false
	}
	return rep, true
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.monthlyReport(w, r, log.OpReport); ok {
		NewResponse().JSON(rep).Write(w)
	}
}

func (s *Server) handleMonthlyReportCSV(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.monthlyReport(w, r, log.OpExport)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteReport(&buf, rep); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewResponse().Attachment("text/csv; charset=utf-8", export.ReportFilename(rep), buf.Bytes()).Write(w)
}

func (s *Server) handleMonthlyReportPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.monthlyReport(w, r, log.OpExport)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteReportPDF(&buf, rep); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewResponse().Attachment("application/pdf", export.ReportPDFFilename(rep), buf.Bytes()).Write(w)
}

// handleMonthlyReportSheet writes the report to its own spreadsheet tab.
func (s *Server) handleMonthlyReportSheet(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReportSheet == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Google Sheets export is not configured").Write(w)
		return
	}
	rep, ok := s.monthlyReport(w, r, log.OpExport)
	if !ok {
		return
	}
	ref, err := s.deps.ReportSheet.WriteReport(r.Context(), rep)
	if err != nil {
		s.fail(w, r, log.OpExport, core.Upstream("write report sheet", err))
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentSheets).InfoContext(r.Context(), "Report exported",
		log.FieldMonth, rep.Month, log.FieldYear, rep.Year, log.FieldSheetsRef, ref)
	NewResponse().JSON(map[string]string{"sheet": ref}).Write(w)
}

func (s *Server) handleReportHistory(w http.ResponseWriter, r *http.Request) {
	points, err := s.deps.Budget.Trend(r.Context())
	if err != nil {
		s.fail(w, r, log.OpReport, err)
		return
	}
	if points == nil {
		points = []core.TrendPoint{}
	}
	NewResponse().JSON(points).Write(w)
}
