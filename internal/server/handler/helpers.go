package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// actorHeader carries the caller's address, set by the authenticating
// gateway in front of this service.
const actorHeader = "X-Actor-Address"

// capabilityHeader carries the listing secret a seller presents to obtain
// the listing capability.
const capabilityHeader = "X-Capability-Token"

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFault maps a marketplace error to its HTTP representation. Domain
// faults become 4xx responses carrying the abort code; anything unexpected
// is logged and becomes a 500.
func writeFault(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if fault, ok := domain.AsFault(err); ok {
		status := http.StatusInternalServerError
		switch fault.Kind {
		case domain.FaultValidation:
			status = http.StatusBadRequest
		case domain.FaultAuthorization:
			status = http.StatusForbidden
		case domain.FaultState:
			status = http.StatusConflict
		case domain.FaultTemporal:
			status = http.StatusGone
		}
		writeJSON(w, status, map[string]any{
			"error": fault.Reason,
			"code":  fault.Code,
		})
		return
	}

	logger.ErrorContext(r.Context(), "handler: internal error",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// actorAddress extracts and normalizes the caller's address from the actor
// header. The second return is false when the header is missing or not a
// valid hex address; the caller should 400.
func actorAddress(r *http.Request) (string, bool) {
	raw := r.Header.Get(actorHeader)
	if raw == "" || !common.IsHexAddress(raw) {
		return "", false
	}
	return common.HexToAddress(raw).Hex(), true
}

// requireActor writes a 400 and returns false when the request carries no
// valid actor address.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := actorAddress(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid "+actorHeader+" header")
	}
	return actor, ok
}

// parseListOpts extracts standard pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0. Optional since/until filters are
// RFC 3339 timestamps.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	opts := domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}

	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			opts.Since = &t
		}
	}
	if v := q.Get("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			opts.Until = &t
		}
	}

	return opts
}

// decodeBody unmarshals a JSON request body into dst. On failure it writes a
// 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
