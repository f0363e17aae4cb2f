package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/parser"
	"github.com/dgallion1/papertrans/internal/pipeline"
	"github.com/dgallion1/papertrans/internal/store"
)

type translateForm struct {
	Budget  int    `validate:"omitempty,min=50,max=100000"`
	Style   string `validate:"omitempty,oneof=bilingual replace"`
	SplitBy string `validate:"omitempty,oneof=section budget"`
	Title   string `validate:"max=500"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	form := translateForm{
		Style:   strings.ToLower(r.FormValue("style")),
		SplitBy: strings.ToLower(r.FormValue("split_by")),
		Title:   r.FormValue("title"),
	}
	if v := r.FormValue("budget"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "budget must be an integer", http.StatusBadRequest)
			return
		}
		form.Budget = n
	}
	if err := s.validate.Struct(form); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	settings := s.orchestrator.Settings()
	if form.Budget > 0 {
		settings.Budget = form.Budget
	}
	if form.Style != "" {
		settings.Style = llm.Style(form.Style)
	}
	if form.SplitBy != "" {
		settings.SplitBy = pipeline.SplitMode(form.SplitBy)
	}
	settings.Force = r.FormValue("force") == "true"

	job := pipeline.NewJob(filename, form.Title, settings, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     pipeline.StatusQueued,
		"settings":   settings,
		"poll_url":   fmt.Sprintf("/api/translate/%s/status", job.ID),
		"result_url": fmt.Sprintf("/api/translate/%s/result", job.ID),
	})
}

func (s *Server) handleTranslateStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleTranslateResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Status.Done() {
		jsonError(w, fmt.Sprintf("job is still %s", snap.Status), http.StatusConflict)
		return
	}

	data, err := s.orchestrator.Result(r.Context(), job)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.log.Error("read result failed", "job_id", snap.ID, "error", err)
		jsonError(w, "failed to read result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s.md"`,
		strings.TrimSuffix(snap.Filename, filepath.Ext(snap.Filename)), snap.Settings.Style))
	w.Write(data)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.ReplaceAll(name, `"`, "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
