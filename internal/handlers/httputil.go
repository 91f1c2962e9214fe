package handlers

import (
	"SchemaDesk/internal/blob"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/selection"
	"SchemaDesk/internal/service"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Коды ошибок в теле ответа.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "UNAUTHORIZED_OPERATION"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidPage     = "INVALID_PAGE"
	CodeStale           = "STALE"
	CodeSetupDone       = "SETUP_DONE"
	CodeInvalidToken    = "INVALID_RESET_TOKEN"
	CodeRemoteOperation = "REMOTE_OPERATION_FAILED"
)

type errorBody struct {
	Error  string             `json:"error"`
	Code   string             `json:"code"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// fail переводит ошибку сервиса в HTTP-ответ. Неизвестные ошибки логируются
// и отдаются как 500 без подробностей.
func fail(w http.ResponseWriter, log *zap.SugaredLogger, op string, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Error(), Code: CodeValidation, Fields: ve.Errors})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", CodeNotFound)
	case errors.Is(err, service.ErrUnauthorizedOperation), errors.Is(err, blob.ErrAccessDenied):
		log.Warnw(op+": operation not permitted by storage", "error", err)
		writeError(w, http.StatusForbidden, "operation not permitted by storage", CodeForbidden)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error(), CodeUnauthorized)
	case errors.Is(err, service.ErrSetupDone):
		writeError(w, http.StatusConflict, err.Error(), CodeSetupDone)
	case errors.Is(err, service.ErrInvalidResetToken):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidToken)
	case errors.Is(err, listing.ErrPageNotVisited),
		errors.Is(err, listing.ErrPageOutOfRange),
		errors.Is(err, listing.ErrInvalidPageSize),
		errors.Is(err, listing.ErrInvalidSortField):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidPage)
	case errors.Is(err, listing.ErrStale):
		writeError(w, http.StatusConflict, err.Error(), CodeStale)
	case errors.Is(err, selection.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidRequest)
	default:
		log.Errorw(op+": failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", CodeRemoteOperation)
	}
}
