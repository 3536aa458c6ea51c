package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type errorBody struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("admin response write failed", zap.Error(err))
	}
}

// fieldError reports the first failing field only.
func fieldError(err error) errorBody {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return errorBody{Error: "validation", Message: "invalid request"}
	}
	fe := ve[0]
	field := strings.ToLower(fe.Field())
	msg := field + " is invalid"
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "max":
		msg = field + " is too long"
	case "custom_domain":
		msg = field + " must be a valid hostname such as shop.example.com"
	}
	return errorBody{Error: "validation", Field: field, Message: msg}
}
