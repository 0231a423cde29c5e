// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"lenscatalog/internal/apperr"
	"lenscatalog/internal/middleware"
	"lenscatalog/internal/models"
	"lenscatalog/internal/session"
)

// totpIssuer names the account in authenticator apps.
const totpIssuer = "Lens Catalog"

// UserStore is the account persistence the auth handlers need.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetPassword(ctx context.Context, userID uuid.UUID, password string) error
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// SessionManager owns the admin session lifecycle.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	RevokeOthers(ctx context.Context, r *http.Request, userID uuid.UUID) (int, error)
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions SessionManager
	users    UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions SessionManager, users UserStore) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=100"`
}

type totpCodeRequest struct {
	Code string `json:"code" validate:"required,min=6,max=6,numeric"`
}

type loginResponse struct {
	User        *models.User `json:"user"`
	Requires2FA bool         `json:"requires2FA"`
}

// Login checks the credentials and starts a session. Accounts with TOTP
// enabled get a pending session that only /admin/2fa/verify accepts.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}

	user, err := a.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		fail(w, r, err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		fail(w, r, apperr.Unauthorized("Invalid username or password"))
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:       user.ID,
		Username:     user.Username,
		DisplayName:  user.DisplayName,
		TOTPRequired: user.Requires2FA(),
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	msg := "Login successful"
	if user.Requires2FA() {
		msg = "Two-factor code required"
	}
	ok(w, http.StatusOK, msg, loginResponse{User: user, Requires2FA: user.Requires2FA()})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Logged out successfully", nil)
}

// CSRFToken returns the token the client must echo on state-changing
// requests.
func (a *Auth) CSRFToken(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, "CSRF token issued", map[string]string{
		"token": middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// currentUser loads the account behind the request session.
func (a *Auth) currentUser(r *http.Request) (*session.Data, *models.User, error) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return nil, nil, apperr.Unauthorized("Unauthorized")
	}
	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperr.Unauthorized("Unauthorized")
	}
	return sess, user, nil
}

// Me returns the signed-in admin.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	_, user, err := a.currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "User retrieved successfully", user)
}

// ChangePassword verifies the current password and stores a new one.
func (a *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}

	_, user, err := a.currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !a.users.CheckPassword(user, req.CurrentPassword) {
		fail(w, r, apperr.Validation("Current password is incorrect"))
		return
	}
	if err := a.users.SetPassword(r.Context(), user.ID, req.NewPassword); err != nil {
		fail(w, r, err)
		return
	}

	// The password is already changed; a failed revoke only leaves the
	// other sessions to expire on their own.
	revoked, err := a.sessions.RevokeOthers(r.Context(), r, user.ID)
	if err != nil {
		slog.Warn("revoke other sessions failed", "user_id", user.ID, "error", err)
	}

	slog.Info("password changed", "user_id", user.ID, "sessions_revoked", revoked)
	ok(w, http.StatusOK, "Password changed successfully", nil)
}

type totpSetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"` // base64 PNG
}

// TwoFASetup generates and stores a new TOTP secret and returns it with a
// QR code. TOTP stays disabled until a code is confirmed via TwoFAEnable.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	_, user, err := a.currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if user.TOTPEnabled {
		fail(w, r, apperr.Conflict("Two-factor authentication is already enabled"))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Username,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		fail(w, r, err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		fail(w, r, err)
		return
	}

	ok(w, http.StatusOK, "Scan the QR code and confirm with a code", totpSetupResponse{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAEnable confirms the pending secret with a code and turns TOTP on.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	var req totpCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}

	sess, user, err := a.currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if user.TOTPEnabled {
		fail(w, r, apperr.Conflict("Two-factor authentication is already enabled"))
		return
	}
	if user.TOTPSecret == nil {
		fail(w, r, apperr.Conflict("Two-factor setup has not been started"))
		return
	}
	if !totp.Validate(req.Code, *user.TOTPSecret) {
		fail(w, r, apperr.Validation("Invalid code. Please try again."))
		return
	}

	if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
		fail(w, r, err)
		return
	}
	sess.TOTPRequired = true
	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		fail(w, r, err)
		return
	}

	slog.Info("two-factor enabled", "user_id", user.ID)
	ok(w, http.StatusOK, "Two-factor authentication enabled", nil)
}

// TwoFAVerify completes a pending login with a TOTP code.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	var req totpCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}

	sess, user, err := a.currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !user.Requires2FA() {
		fail(w, r, apperr.Conflict("Two-factor authentication is not enabled"))
		return
	}
	if !totp.Validate(req.Code, *user.TOTPSecret) {
		slog.Warn("two-factor code rejected", "user_id", user.ID, "remote", r.RemoteAddr)
		fail(w, r, apperr.Unauthorized("Invalid code. Please try again."))
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Two-factor verification successful", user)
}
