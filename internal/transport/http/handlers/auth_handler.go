package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vedran77/projectdesk/internal/metrics"
	"github.com/vedran77/projectdesk/internal/service"
	"github.com/vedran77/projectdesk/pkg/validator"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *zap.Logger
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService *service.AuthService, log *zap.Logger, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, log: log, metrics: m}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.metrics.ObserveRegistration(metrics.RegistrationInvalid)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input.Email = strings.TrimSpace(input.Email)

	if errs := validator.ValidateRegister(input.Email, input.Password); errs.HasErrors() {
		h.metrics.ObserveRegistration(metrics.RegistrationInvalid)
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			h.metrics.ObserveRegistration(metrics.RegistrationConflict)
			writeError(w, http.StatusConflict, "User with email already exists")
			return
		}
		h.metrics.ObserveRegistration(metrics.RegistrationError)
		h.log.Error("register failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.ObserveRegistration(metrics.RegistrationCreated)
	h.log.Info("user registered", zap.String("user_id", resp.User.ID.String()))
	writeJSON(w, http.StatusCreated, resp)
}
