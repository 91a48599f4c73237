package handler

import (
	"net/http"
	"time"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/server/middleware"
	"github.com/thepom/thepom/internal/service"
)

// AdminHandler serves admin login, logout and account management.
type AdminHandler struct {
	auth   *service.AuthService
	admins *service.AdminService
	errs   Errors
	// secureCookie marks the session cookie Secure; set in production where
	// the API is served over TLS.
	secureCookie bool
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(auth *service.AuthService, admins *service.AdminService, errs Errors, secureCookie bool) *AdminHandler {
	return &AdminHandler{auth: auth, admins: admins, errs: errs, secureCookie: secureCookie}
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string            `json:"token"`
	Admin model.PublicAdmin `json:"admin"`
}

// Login authenticates an admin and returns a token. The token is also set
// as an HttpOnly cookie so browser clients can omit the header.
// POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.auth.Login(r.Context(), service.LoginInput{
		LoginID:   req.LoginID,
		Password:  req.Password,
		IPAddress: middleware.GetClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		MaxAge:   int(time.Until(res.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, Admin: res.Admin.Public()})
}

// Logout deletes the session bound to the caller's token and clears the
// cookie. It succeeds whether or not a session existed.
// POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
}

// Me returns the authenticated admin.
// GET /api/v1/admin/me
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())
	if admin == nil {
		writeError(w, http.StatusNotFound, "Admin not found")
		return
	}
	writeJSON(w, http.StatusOK, admin.Public())
}

// ---------------------------------------------------------------------------
// Account management
// ---------------------------------------------------------------------------

// List returns every admin that has not been deleted.
// GET /api/v1/admin
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if admins == nil {
		admins = []model.Admin{}
	}
	writeJSON(w, http.StatusOK, admins)
}

// Get returns a single admin.
// GET /api/v1/admin/{id}
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid admin id")
		return
	}
	admin, err := h.admins.Get(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

type createAdminRequest struct {
	LoginID  string     `json:"loginId"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	MemberID flexibleID `json:"memberId"`
}

// Create registers a NORMAL admin. The type cannot be chosen here.
// POST /api/v1/admin
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	admin, err := h.admins.Create(r.Context(), service.CreateAdminInput{
		LoginID:  req.LoginID,
		Password: req.Password,
		Name:     req.Name,
		MemberID: req.MemberID.Value,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

type updateAdminRequest struct {
	Name      string          `json:"name"`
	AdminType model.AdminType `json:"adminType"`
	MemberID  flexibleID      `json:"memberId"`
	Password  string          `json:"password"`
}

// Update changes an admin's name, type, member link or password.
// PUT /api/v1/admin/{id}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid admin id")
		return
	}
	var req updateAdminRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	admin, err := h.admins.Update(r.Context(), middleware.GetAdmin(r.Context()), id, service.UpdateAdminInput{
		Name:        req.Name,
		AdminType:   req.AdminType,
		MemberID:    req.MemberID.Value,
		ClearMember: req.MemberID.Set && req.MemberID.Value == nil,
		Password:    req.Password,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

// Delete soft-deletes an admin.
// DELETE /api/v1/admin/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid admin id")
		return
	}
	if err := h.admins.Delete(r.Context(), middleware.GetAdmin(r.Context()), id); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Admin deleted successfully"})
}
