package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/application/auth"
	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
)

// AdminHandler serves the operator endpoints behind the admin secret.
type AdminHandler struct {
	setLock  *auth.SetAdminLock
	emitter  ports.WebhookEmitter
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAdminHandler(setLock *auth.SetAdminLock, emitter ports.WebhookEmitter, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		setLock:  setLock,
		emitter:  emitter,
		validate: validator.New(),
		log:      log,
	}
}

// SetLock sets or clears the operator lock. The lock is sticky: it survives
// counter resets and the self-service unlock endpoint.
func (h *AdminHandler) SetLock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address" validate:"required,max=254"`
		Locked  *bool  `json:"locked" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if err := h.setLock.Execute(r.Context(), body.Address, *body.Locked); err != nil {
		AuditEmit(h.log, r, h.emitter, "admin.set_lock", "", body.Address, false, err.Error())
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("set admin lock failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "admin.set_lock", "", body.Address, true, "")
	writeJSON(w, http.StatusOK, map[string]bool{"locked": *body.Locked})
}
