package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/odpad/internal/auth"
	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type signupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	DepartmentID int64  `json:"department_id"`
	CompanyName  string `json:"company_name"`
}

type signupResponse struct {
	User          *model.User   `json:"user"`
	Vendor        *model.Vendor `json:"vendor,omitempty"`
	CompanyExists bool          `json:"company_exists,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Email, user.Role)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Signup handles POST /api/auth/signup. Students and coordinators join a
// department. Vendors register a company; a vendor joining an existing
// company shares its CPCB registration number.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "name, email, password and role required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		jsonError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !model.RoleIn(req.Role, model.RoleStudent, model.RoleCoordinator, model.RoleVendor) {
		jsonError(w, http.StatusBadRequest, "role must be student, coordinator or vendor")
		return
	}

	ctx := r.Context()
	existing, err := store.GetUserByEmail(ctx, h.DB, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil && existing.DeletedAt == nil {
		jsonError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	user := model.User{Email: req.Email, Name: req.Name, Role: req.Role}
	var resp signupResponse

	switch req.Role {
	case model.RoleStudent, model.RoleCoordinator:
		if req.DepartmentID <= 0 {
			jsonError(w, http.StatusBadRequest, "department_id required")
			return
		}
		dept, err := store.GetDepartment(ctx, h.DB, req.DepartmentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if dept == nil {
			jsonError(w, http.StatusBadRequest, "unknown department")
			return
		}
		user.DepartmentID = dept.ID

	case model.RoleVendor:
		if req.CompanyName == "" {
			jsonError(w, http.StatusBadRequest, "company_name required")
			return
		}
		taken, err := store.GetVendorByEmail(ctx, h.DB, req.Email)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if taken != nil {
			jsonError(w, http.StatusConflict, "a vendor with this email already exists")
			return
		}
		company, err := store.GetVendorByCompany(ctx, h.DB, req.CompanyName)
		if err != nil {
			writeError(w, r, err)
			return
		}
		registration := fmt.Sprintf("CPCB-%d", time.Now().UnixMilli())
		if company != nil {
			registration = company.CPCBRegistrationNo
			resp.CompanyExists = true
		}
		resp.Vendor = &model.Vendor{
			CompanyName:        req.CompanyName,
			ContactPerson:      req.Name,
			Email:              req.Email,
			CPCBRegistrationNo: registration,
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user.PasswordHash = string(hash)

	if resp.Vendor != nil {
		resp.Vendor, resp.User, err = store.CreateVendorAccount(ctx, h.DB, *resp.Vendor, user)
	} else {
		resp.User, err = store.CreateUser(ctx, h.DB, user)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user signed up", "user", resp.User.Email, "role", resp.User.Role, "company_exists", resp.CompanyExists)
	jsonResponse(w, http.StatusCreated, resp)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"user":       user,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// Logout handles POST /api/auth/logout. The token stays revoked until it
// would have expired.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged out", "user", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, string(hash)); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	slog.Info("user changed own password", "user", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
