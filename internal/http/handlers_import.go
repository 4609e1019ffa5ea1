package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/importer"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
	"github.com/iamdivyeshtailor/finance-management/internal/services"
	"github.com/iamdivyeshtailor/finance-management/internal/statement"
)

// multipartOverhead is the room left for form boundaries and headers.
const multipartOverhead = 64 << 10

type (
	indexRequest struct {
		Index int `json:"index"`
	}
	filterRequest struct {
		Filter importer.Filter `json:"filter"`
	}
	categoryRequest struct {
		Index    int    `json:"index"`
		Category string `json:"category"`
	}
	tagsRequest struct {
		Index int      `json:"index"`
		Tags  []string `json:"tags"`
	}
	saveRequest struct {
		Transactions []core.ImportTransaction `json:"transactions"`
	}
)

func (s *Server) tooLarge() error {
	return &core.ValidationError{Field: "statement", Message: fmt.Sprintf("File size must be under %dMB", s.maxUpload>>20)}
}

// handleImportParse accepts a multipart form with the file in "statement".
// Type and size are checked before the parser runs.
func (s *Server) handleImportParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.fail(w, r, log.OpImport, s.tooLarge())
			return
		}
		s.fail(w, r, log.OpImport, &core.ValidationError{Field: "statement", Message: "Please upload a statement file"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("statement")
	if err != nil {
		s.fail(w, r, log.OpImport, &core.ValidationError{Field: "statement", Message: "Please upload a statement file"})
		return
	}
	defer file.Close()

	if err := statement.CheckFile(header.Filename, header.Size, s.maxUpload); err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}
	if int64(len(data)) > s.maxUpload {
		s.fail(w, r, log.OpImport, s.tooLarge())
		return
	}

	view, err := s.deps.Imports.Parse(r.Context(), data, header.Filename)
	if err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Header("Location", "/expenses/import/batches/"+view.ID).JSON(view).Write(w)
}

func (s *Server) handleBatchView(w http.ResponseWriter, r *http.Request) {
	s.writeBatch(w, r)(s.deps.Imports.View(r.PathValue("id")))
}

func (s *Server) handleBatchToggle(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.writeBatch(w, r)(s.deps.Imports.Toggle(r.PathValue("id"), req.Index))
}

func (s *Server) handleBatchFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.writeBatch(w, r)(s.deps.Imports.SetFilter(r.PathValue("id"), req.Filter))
}

func (s *Server) handleBatchSelectAll(w http.ResponseWriter, r *http.Request) {
	s.writeBatch(w, r)(s.deps.Imports.SelectAll(r.PathValue("id")))
}

func (s *Server) handleBatchDeselectAll(w http.ResponseWriter, r *http.Request) {
	s.writeBatch(w, r)(s.deps.Imports.DeselectAll(r.PathValue("id")))
}

func (s *Server) handleBatchCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.writeBatch(w, r)(s.deps.Imports.UpdateCategory(r.PathValue("id"), req.Index, sanitizeInput(req.Category)))
}

func (s *Server) handleBatchTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.writeBatch(w, r)(s.deps.Imports.UpdateTags(r.PathValue("id"), req.Index, req.Tags))
}

func (s *Server) handleBatchCommit(w http.ResponseWriter, r *http.Request) {
	s.writeImport(w, r)(s.deps.Imports.Commit(r.Context(), r.PathValue("id")))
}

// handleImportSave commits a list the client reviewed itself.
func (s *Server) handleImportSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, log.OpCommit, err)
		return
	}
	s.writeImport(w, r)(s.deps.Imports.Save(r.Context(), req.Transactions))
}

func (s *Server) writeBatch(w http.ResponseWriter, r *http.Request) func(services.BatchView, error) {
	return func(view services.BatchView, err error) {
		if err != nil {
			s.fail(w, r, log.OpUpdate, err)
			return
		}
		NewResponse().JSON(view).Write(w)
	}
}

func (s *Server) writeImport(w http.ResponseWriter, r *http.Request) func(core.BulkResult, error) {
	return func(res core.BulkResult, err error) {
		if err != nil {
			s.fail(w, r, log.OpCommit, err)
			return
		}
		atomic.AddInt64(&s.appMetrics.importsCommitted, int64(res.Count))
		NewResponse().Status(http.StatusCreated).JSON(res).Write(w)
	}
}
