package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/server/middleware"
	"github.com/thepom/thepom/internal/service"
	"github.com/thepom/thepom/internal/store"
)

// writeJSON serializes v as JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the {"success":false,"error":...} envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// readJSON decodes the request body into v and closes it.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// Errors turns service and store errors into HTTP responses. Outside
// production, unexpected errors carry their message and a stack trace.
type Errors struct {
	Dev    bool
	Logger *slog.Logger
}

func (e Errors) write(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	switch {
	case errors.As(err, &svcErr):
		writeError(w, svcErr.Status, svcErr.Message)
		return
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Duplicate field value entered")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	resp := model.ErrorResponse{Error: "Server Error"}
	if e.Dev {
		resp.Error = err.Error()
		resp.Stack = string(debug.Stack())
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed answers requests whose path matches with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// flexibleID accepts an id sent either as a JSON number or a numeric
// string. A JSON null, 0 or "" means "no id".
type flexibleID struct {
	Set   bool
	Value *int64
}

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.New("memberId must be a number")
		}
		if s == "" {
			return nil
		}
		if n, err = strconv.ParseInt(s, 10, 64); err != nil {
			return errors.New("memberId must be a number")
		}
	}
	if n != 0 {
		f.Value = &n
	}
	return nil
}
