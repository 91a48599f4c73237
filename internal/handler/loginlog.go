package handler

import (
	"net/http"
	"strconv"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/service"
)

// LoginLogHandler exposes the admin login audit trail.
type LoginLogHandler struct {
	admins *service.AdminService
	errs   Errors
}

func NewLoginLogHandler(admins *service.AdminService, errs Errors) *LoginLogHandler {
	return &LoginLogHandler{admins: admins, errs: errs}
}

// List returns login attempts, newest first. Optional filters: adminId and
// success ("true" matches successful attempts, any other value failed ones).
// GET /api/v1/admin-login-logs
func (h *LoginLogHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.LoginLogFilter
	q := r.URL.Query()
	if v := q.Get("adminId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "adminId must be a number")
			return
		}
		filter.AdminID = &id
	}
	if q.Has("success") {
		success := q.Get("success") == "true"
		filter.Success = &success
	}

	logs, err := h.admins.LoginLogs(r.Context(), filter)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if logs == nil {
		logs = []model.AdminLoginLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Get returns one login attempt.
// GET /api/v1/admin-login-logs/{id}
func (h *LoginLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid login log id")
		return
	}
	entry, err := h.admins.LoginLog(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
