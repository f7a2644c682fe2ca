package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"git.home.luguber.info/inful/mdredirect/internal/docs"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/server/middleware"
	"git.home.luguber.info/inful/mdredirect/internal/server/responses"
)

// Response headers set on raw markdown responses.
const (
	HeaderChanged  = "X-Mdredirect-Changed"
	HeaderFallback = "X-Mdredirect-Fallback"
)

// RewriteHandlers serves the rewrite API.
type RewriteHandlers struct {
	processor    *docs.Processor
	maxBody      int64
	errorAdapter *errors.HTTPErrorAdapter
}

// NewRewriteHandlers creates handlers rewriting with processor. Bodies larger
// than maxBody bytes are rejected.
func NewRewriteHandlers(processor *docs.Processor, maxBody int64, logger *slog.Logger) *RewriteHandlers {
	return &RewriteHandlers{
		processor:    processor,
		maxBody:      maxBody,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
}

// HandleRewrite rewrites a markdown document. A JSON body ({"content": ...})
// gets a JSON response; any other body is treated as raw markdown and echoed
// back rewritten.
func (h *RewriteHandlers) HandleRewrite(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("request body too large").
				WithContext("status", http.StatusRequestEntityTooLarge).
				WithContext("limit_bytes", h.maxBody).
				Build())
			return
		}
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryValidation, "failed to read request body").Build())
		return
	}

	if isJSON(r.Header.Get("Content-Type")) {
		h.rewriteJSON(w, r, body)
		return
	}

	res := h.processor.ProcessContent(sourceName(r), string(body))
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set(HeaderChanged, strconv.FormatBool(res.Changed))
	if res.Fallback != nil {
		w.Header().Set(HeaderFallback, string(errors.GetCategory(res.Fallback)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Content)
}

func (h *RewriteHandlers) rewriteJSON(w http.ResponseWriter, r *http.Request, body []byte) {
	var req responses.RewriteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryValidation, "invalid JSON body").Build())
		return
	}
	if req.Content == nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("missing content field").Build())
		return
	}

	res := h.processor.ProcessContent(sourceName(r), *req.Content)
	resp := responses.RewriteResponse{
		Content: res.Content,
		Changed: res.Changed,
		Links:   res.Links,
		Texts:   res.Texts,
		Skipped: res.Skipped,
	}
	if res.Fallback != nil {
		resp.Fallback = string(errors.GetCategory(res.Fallback))
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to encode response").Build())
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// sourceName labels log lines for a request body.
func sourceName(r *http.Request) string {
	if id := middleware.RequestID(r.Context()); id != "" {
		return "request:" + id
	}
	return "request"
}
