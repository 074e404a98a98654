package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/application/verification"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/http/middleware"
)

type VerificationHandler struct {
	issue    *verification.IssueCode
	verify   *verification.VerifyCode
	check    *verification.CheckCode
	emitter  ports.WebhookEmitter
	validate *validator.Validate
	log      zerolog.Logger
}

func NewVerificationHandler(issue *verification.IssueCode, verify *verification.VerifyCode, check *verification.CheckCode, emitter ports.WebhookEmitter, log zerolog.Logger) *VerificationHandler {
	return &VerificationHandler{
		issue:    issue,
		verify:   verify,
		check:    check,
		emitter:  emitter,
		validate: validator.New(),
		log:      log,
	}
}

// Issue generates and stores a fresh code for the channel and queues delivery.
// The code itself is never returned over HTTP.
func (h *VerificationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address" validate:"required,max=254"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	result, err := h.issue.Execute(r.Context(), body.Address)
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "verification.issue", "", body.Address, false, err.Error())
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("issue code failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "verification.issue", "", body.Address, true, "")
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"kind":      string(result.Kind),
		"issued_at": result.IssuedAt,
	})
}

func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address" validate:"required,max=254"`
		Code    string `json:"code" validate:"required,max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if err := h.verify.Execute(r.Context(), body.Address, body.Code); err != nil {
		AuditEmit(h.log, r, h.emitter, "verification.verify", "", body.Address, false, err.Error())
		middleware.RecordAuthAttempt("verify", false)
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("verify code failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "verification.verify", "", body.Address, true, "")
	middleware.RecordAuthAttempt("verify", true)
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// Check resolves a live code to its owner without consuming it. Used by
// delivery callbacks that only carry the code.
func (h *VerificationHandler) Check(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code" validate:"required,max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	personID, err := h.check.Execute(r.Context(), body.Code)
	if err != nil {
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("check code failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"person_id": personID.String()})
}
