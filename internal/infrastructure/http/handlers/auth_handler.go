package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/application/auth"
	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/http/middleware"
)

type AuthHandler struct {
	register     *auth.Register
	authenticate *auth.Authenticate
	unlock       *auth.Unlock
	setup2FA     *auth.SetupSecondFactor
	confirm2FA   *auth.ConfirmSecondFactor
	emitter      ports.WebhookEmitter
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewAuthHandler(register *auth.Register, authenticate *auth.Authenticate, unlock *auth.Unlock, setup2FA *auth.SetupSecondFactor, confirm2FA *auth.ConfirmSecondFactor, emitter ports.WebhookEmitter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		register:     register,
		authenticate: authenticate,
		unlock:       unlock,
		setup2FA:     setup2FA,
		confirm2FA:   confirm2FA,
		emitter:      emitter,
		validate:     validator.New(),
		log:          log,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email        string `json:"email" validate:"required,email,max=254"`
		Password     string `json:"password" validate:"required,min=8,max=128"`
		PhoneCountry string `json:"phone_country" validate:"omitempty,max=8"`
		PhoneNumber  string `json:"phone_number" validate:"omitempty,max=32"`
		FirstName    string `json:"first_name" validate:"omitempty,max=128"`
		MiddleName   string `json:"middle_name" validate:"omitempty,max=128"`
		LastName     string `json:"last_name" validate:"omitempty,max=128"`
		Suffix       string `json:"suffix" validate:"omitempty,max=32"`
		Gender       string `json:"gender" validate:"omitempty,oneof=Male Female"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	email := SanitizeEmail(body.Email)
	password := SanitizePassword(body.Password)
	if email == "" || password == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid email or password length")
		return
	}
	result, err := h.register.Execute(r.Context(), auth.RegisterInput{
		Email:        email,
		PhoneCountry: body.PhoneCountry,
		PhoneNumber:  SanitizePhone(body.PhoneNumber),
		Password:     password,
		Info: domain.UserInfo{
			Suffix:     body.Suffix,
			FirstName:  body.FirstName,
			MiddleName: body.MiddleName,
			LastName:   body.LastName,
			Gender:     body.Gender,
		},
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "person.register", "", email, false, err.Error())
		middleware.RecordAuthAttempt("register", false)
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("register failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "person.register", result.Person.ID.String(), email, true, "")
	middleware.RecordAuthAttempt("register", true)
	writeJSON(w, http.StatusCreated, personResponse(result.Person))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address     string `json:"address" validate:"required,max=254"`
		Password    string `json:"password" validate:"required,max=128"`
		OneTimeCode string `json:"one_time_code" validate:"omitempty,max=16"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	password := SanitizePassword(body.Password)
	if password == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid password length")
		return
	}
	result, err := h.authenticate.Execute(r.Context(), auth.AuthenticateInput{
		Address:     body.Address,
		Password:    password,
		OneTimeCode: body.OneTimeCode,
		ClientIP:    getClientIP(r),
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "person.login", "", body.Address, false, err.Error())
		middleware.RecordAuthAttempt("login", false)
		if err == domerrors.ErrMaxAttempts {
			middleware.RecordLockout()
		}
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "person.login", result.Person.ID.String(), body.Address, true, "")
	middleware.RecordAuthAttempt("login", true)
	writeJSON(w, http.StatusOK, personResponse(result.Person))
}

func (h *AuthHandler) Unlock(w http.ResponseWriter, r *http.Request) {
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
	if err := h.unlock.Execute(r.Context(), body.Address); err != nil {
		AuditEmit(h.log, r, h.emitter, "person.unlock", "", body.Address, false, err.Error())
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("unlock failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "person.unlock", "", body.Address, true, "")
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
}

func (h *AuthHandler) SecondFactorSetup(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.setup2FA.Execute(r.Context(), body.Address)
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "person.2fa_setup", "", body.Address, false, err.Error())
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("second factor setup failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "person.2fa_setup", "", body.Address, true, "")
	writeJSON(w, http.StatusOK, map[string]string{
		"secret": result.Secret,
		"url":    result.URL,
	})
}

func (h *AuthHandler) SecondFactorConfirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address" validate:"required,max=254"`
		Code    string `json:"code" validate:"required,max=16"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if err := h.confirm2FA.Execute(r.Context(), body.Address, body.Code); err != nil {
		AuditEmit(h.log, r, h.emitter, "person.2fa_confirm", "", body.Address, false, err.Error())
		if status, code, ok := domainErr(err); ok {
			writeErr(w, status, code, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("second factor confirm failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "person.2fa_confirm", "", body.Address, true, "")
	writeJSON(w, http.StatusOK, map[string]bool{"confirmed": true})
}

// personResponse is the public shape of a person; it never includes the
// password hash, attempt counter or second factor secret.
func personResponse(p *domain.Person) map[string]interface{} {
	channels := make([]map[string]interface{}, 0, len(p.Channels))
	for _, ch := range p.Channels {
		channels = append(channels, map[string]interface{}{
			"kind":     string(ch.Kind),
			"address":  ch.Address,
			"country":  ch.Country,
			"verified": ch.Verified,
		})
	}
	return map[string]interface{}{
		"id":       p.ID.String(),
		"channels": channels,
		"info": map[string]interface{}{
			"suffix":      p.Info.Suffix,
			"first_name":  p.Info.FirstName,
			"middle_name": p.Info.MiddleName,
			"last_name":   p.Info.LastName,
			"birth_date":  p.Info.BirthDate,
			"gender":      p.Info.Gender,
		},
		"second_factor_enabled": p.Login.SecondFactorEnabled(),
		"created_at":            p.CreatedAt,
		"updated_at":            p.UpdatedAt,
	}
}
