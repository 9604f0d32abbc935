package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/bnet/internal/app"
	"github.com/okian/bnet/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	defaultMaxBatch = 50
	maxBatchBody    = 1 << 20
)

// LookupHandler serves catalog listings and lookups.
type LookupHandler struct {
	deps     Dependencies
	log      logger.Logger
	maxBatch int
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps Dependencies, log logger.Logger) *LookupHandler {
	return &LookupHandler{deps: deps, log: log, maxBatch: defaultMaxBatch}
}

// HandleEndpoints handles GET /endpoints requests.
func (h *LookupHandler) HandleEndpoints(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Endpoints())
}

// HandleLookup handles GET /v1/{endpoint}/* requests. Every path segment
// after the endpoint name is one parameter, in template order.
func (h *LookupHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res := h.deps.LookupOne(r.Context(), service.Call{
		Endpoint: chi.URLParam(r, "endpoint"),
		Params:   params,
	})
	w.Header().Set(requestIDHeader, res.RequestID)
	if res.Err != nil {
		status, code := statusFor(res.Err)
		if status >= http.StatusInternalServerError {
			h.log.Warn(r.Context(), "lookup failed",
				logger.String("requestID", res.RequestID),
				logger.Int("status", status),
				logger.Error(res.Err),
			)
		}
		writeError(w, status, code, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, res.Value)
}

type batchRequest struct {
	Calls []service.Call `json:"calls"`
}

type batchItem struct {
	Call      service.Call   `json:"call"`
	RequestID string         `json:"request_id"`
	Status    int            `json:"status"`
	Value     any            `json:"value,omitempty"`
	Error     *errorResponse `json:"error,omitempty"`
}

// HandleBatch handles POST /batch requests. The response always has status
// 200; each item carries the status its single lookup would have had.
func (h *LookupHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if len(req.Calls) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Errorf("%w: no calls", ErrBadRequest))
		return
	}
	if len(req.Calls) > h.maxBatch {
		writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("%w: %d calls, limit %d", ErrBatchTooLarge, len(req.Calls), h.maxBatch))
		return
	}

	results := h.deps.LookupMany(r.Context(), req.Calls)
	items := make([]batchItem, len(results))
	for i, res := range results {
		items[i] = batchItem{Call: res.Call, RequestID: res.RequestID, Status: http.StatusOK, Value: res.Value}
		if res.Err != nil {
			status, code := statusFor(res.Err)
			items[i].Status = status
			items[i].Error = &errorResponse{Code: code, Message: res.Err.Error()}
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// pathParams splits the wildcard remainder into unescaped parameters. chi
// routes on RawPath when the request carried escapes that differ from the
// default encoding, so segments are unescaped only in that case.
func pathParams(r *http.Request) ([]string, error) {
	rest := chi.URLParam(r, "*")
	if rest == "" {
		return nil, nil
	}
	segments := strings.Split(rest, "/")
	if r.URL.RawPath == "" {
		return segments, nil
	}
	for i, seg := range segments {
		v, err := url.PathUnescape(seg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		segments[i] = v
	}
	return segments, nil
}
