package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"medeasy/pos/domain"
	"medeasy/pos/internal/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names in messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads the body into dest and runs struct validation on it.
func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return domain.Validation("invalid request body: %v", err)
	}
	if err := validate.Struct(dest); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.Validation("invalid request")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Validation("%s is required", fe.Field())
	case "email":
		return domain.Validation("%s must be a valid email", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return domain.Validation("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return domain.Validation("%s must contain at least %s entries", fe.Field(), fe.Param())
	case "gt":
		return domain.Validation("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return domain.Validation("%s is invalid", fe.Field())
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("invalid %s", name)
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondError maps engine errors to HTTP statuses. Anything that is not a
// domain error is logged and hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		respondJSON(w, statusFor(de.Code), errorBody{Error: de.Message, Code: de.Code})
		return
	}
	logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func statusFor(code string) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeInsufficientStock, domain.CodeInvalidQuantity, domain.CodeAlreadyInStock, domain.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
