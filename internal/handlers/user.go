package handlers

import (
	"SchemaDesk/internal/config"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/middleware"
	"SchemaDesk/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// UserHandler - настройка, вход и сброс пароля.
type UserHandler struct {
	UserService *service.UserService
	Views       *listing.Registry
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewUserHandler создаёт хендлер пользователей
func NewUserHandler(userService *service.UserService, views *listing.Registry, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Views: views, Logger: logger, Config: cfg}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Bootstrap сообщает клиенту, нужна ли первичная настройка.
func (h *UserHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	required, err := h.UserService.SetupRequired(r.Context())
	if err != nil {
		fail(w, h.Logger, "Bootstrap", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"setupRequired": required})
}

// Setup создаёт первого администратора и сразу логинит его.
func (h *UserHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Logger.Warnw("Setup: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request", CodeInvalidRequest)
		return
	}
	u, err := h.UserService.Setup(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, h.Logger, "Setup", err)
		return
	}
	if err := middleware.SetLoginCookie(w, u.ID, h.Config.AuthSecret); err != nil {
		h.Logger.Errorw("Setup: failed to set cookie", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", CodeRemoteOperation)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Email: u.Email, Role: u.Role})
}

// Login вход по email и паролю
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request", CodeInvalidRequest)
		return
	}
	u, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, h.Logger, "Login", err)
		return
	}
	if err := middleware.SetLoginCookie(w, u.ID, h.Config.AuthSecret); err != nil {
		h.Logger.Errorw("Login: failed to set cookie", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", CodeRemoteOperation)
		return
	}
	h.Logger.Infow("User logged in", "user_id", u.ID)
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email, Role: u.Role})
}

// Logout сбрасывает cookie и состояние списков пользователя.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if uid, ok := middleware.GetUserIDFromContext(r.Context()); ok && h.Views != nil {
		h.Views.DropUser(uid)
	}
	middleware.ClearLoginCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает пользователя сессии и его роль.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	u, err := h.UserService.Me(r.Context(), uid)
	if err != nil {
		fail(w, h.Logger, "Me", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email, Role: u.Role})
}

// RequestReset всегда отвечает 202, чтобы не раскрывать наличие email.
func (h *UserHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required", CodeInvalidRequest)
		return
	}
	if err := h.UserService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		fail(w, h.Logger, "RequestReset", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ConfirmReset задаёт новый пароль по токену сброса.
func (h *UserHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", CodeInvalidRequest)
		return
	}
	if err := h.UserService.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
		fail(w, h.Logger, "ConfirmReset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
