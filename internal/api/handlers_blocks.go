package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/papertrans/internal/breaks"
	"github.com/dgallion1/papertrans/internal/chunker"
	"github.com/dgallion1/papertrans/internal/mdblock"
)

type segmentRequest struct {
	Text      string `json:"text" validate:"required"`
	KeepEmpty bool   `json:"keep_empty"`
}

type sectionsRequest struct {
	Text string `json:"text" validate:"required"`
}

type chunksRequest struct {
	Text          string `json:"text" validate:"required"`
	Budget        int    `json:"budget" validate:"omitempty,min=1,max=1000000"`
	TopLevelOnly  bool   `json:"top_level_only"`
	IgnoreHeaders bool   `json:"ignore_headers"`
}

type checkRequest struct {
	Reference string `json:"reference" validate:"required"`
	Candidate string `json:"candidate" validate:"required"`
	SkipYAML  bool   `json:"skip_yaml"`
}

type breaksRequest struct {
	Text string `json:"text" validate:"required"`
}

type blockView struct {
	Index   int          `json:"index"`
	Kind    mdblock.Kind `json:"kind"`
	Level   int          `json:"level,omitempty"`
	Line    int          `json:"line"`
	Content string       `json:"content"`
}

type chunkView struct {
	chunker.Chunk
	Title string `json:"title"`
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	lines := mdblock.SplitLines(req.Text)
	blocks := mdblock.Tokenize(lines, mdblock.Options{KeepEmpty: req.KeepEmpty})
	pos := mdblock.LocateLines(lines, blocks)

	views := make([]blockView, len(blocks))
	for i, b := range blocks {
		views[i] = blockView{Index: i, Kind: b.Kind, Level: b.Level(), Line: pos[i], Content: b.Content}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(views),
		"blocks": views,
	})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	var req sectionsRequest
	if !s.decode(w, r, &req) {
		return
	}
	blocks := mdblock.TokenizeString(req.Text, mdblock.Options{})
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunkViews(chunker.Sections(blocks))})
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	var req chunksRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts := chunker.Options{
		Budget:        req.Budget,
		TopLevelOnly:  req.TopLevelOnly,
		IgnoreHeaders: req.IgnoreHeaders,
	}
	if opts.Budget == 0 {
		opts.Budget = s.cfg.Budget
	}
	blocks := mdblock.TokenizeString(req.Text, mdblock.Options{})
	writeJSON(w, http.StatusOK, map[string]any{
		"budget": opts.Budget,
		"chunks": chunkViews(chunker.Merge(blocks, opts)),
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !s.decode(w, r, &req) {
		return
	}
	refLines := mdblock.SplitLines(req.Reference)
	candLines := mdblock.SplitLines(req.Candidate)
	ref := mdblock.Tokenize(refLines, mdblock.Options{})
	cand := mdblock.Tokenize(candLines, mdblock.Options{})

	rep := mdblock.Check(ref, cand, refLines, candLines, mdblock.CheckOptions{SkipYAML: req.SkipYAML})
	resp := struct {
		mdblock.Report
		Diff string `json:"diff,omitempty"`
	}{Report: rep}
	if !rep.OK {
		resp.Diff = mdblock.KindDiff(ref, cand)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBreaks(w http.ResponseWriter, r *http.Request) {
	var req breaksRequest
	if !s.decode(w, r, &req) {
		return
	}
	lines := mdblock.SplitLines(req.Text)
	issues := breaks.Check(mdblock.Tokenize(lines, mdblock.Options{}), lines)

	var report strings.Builder
	if err := breaks.Render(&report, issues); err != nil {
		jsonError(w, "render report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if issues == nil {
		issues = []breaks.Issue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issues": issues,
		"report": report.String(),
	})
}

func chunkViews(chunks []chunker.Chunk) []chunkView {
	out := make([]chunkView, len(chunks))
	for i, c := range chunks {
		out[i] = chunkView{Chunk: c, Title: c.Title()}
	}
	return out
}

// decode reads a JSON body into dst and validates it, answering 400 on
// failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxTextBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs[i] = field + " is required"
		default:
			msgs[i] = fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param())
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
