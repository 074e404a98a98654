package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// writeErr sends JSON { "error": message, "code": errCode }. If errCode is empty, a default is used from code.
func writeErr(w http.ResponseWriter, code int, errCode string, message string) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	default:
		return ErrCodeInternal
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// domainErr maps a known domain error to its HTTP status and API error code.
// Returns ok=false for errors that should surface as 500.
func domainErr(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, domerrors.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, true
	case errors.Is(err, domerrors.ErrPasswordIncorrect):
		return http.StatusUnauthorized, ErrCodePasswordIncorrect, true
	case errors.Is(err, domerrors.ErrMaxAttempts):
		return http.StatusForbidden, ErrCodeMaxAttempts, true
	case errors.Is(err, domerrors.ErrAdminLocked):
		return http.StatusForbidden, ErrCodeAdminLocked, true
	case errors.Is(err, domerrors.ErrUnverifiedEmail):
		return http.StatusForbidden, ErrCodeUnverifiedEmail, true
	case errors.Is(err, domerrors.ErrUnverifiedPhone):
		return http.StatusForbidden, ErrCodeUnverifiedPhone, true
	case errors.Is(err, domerrors.ErrInvalidOneTimeCode):
		return http.StatusUnauthorized, ErrCodeInvalidOneTimeCode, true
	case errors.Is(err, domerrors.ErrCodeEmpty):
		return http.StatusBadRequest, ErrCodeCodeEmpty, true
	case errors.Is(err, domerrors.ErrCodeIncorrect):
		return http.StatusUnauthorized, ErrCodeCodeIncorrect, true
	case errors.Is(err, domerrors.ErrNoCodeGenerated):
		return http.StatusConflict, ErrCodeNoCodeGenerated, true
	case errors.Is(err, domerrors.ErrAddressTaken):
		return http.StatusConflict, ErrCodeAddressTaken, true
	case errors.Is(err, domerrors.ErrInvalidAddress):
		return http.StatusBadRequest, ErrCodeInvalidAddress, true
	case errors.Is(err, domerrors.ErrSecondFactorNotSetup):
		return http.StatusConflict, ErrCodeSecondFactorNotSetup, true
	case errors.Is(err, domerrors.ErrSecondFactorConfirmed):
		return http.StatusConflict, ErrCodeSecondFactorConfirmed, true
	}
	return 0, "", false
}
