package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/logger"
)

// Response is the envelope of every API reply. Code carries the
// BusinessError code on failures.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func write(w http.ResponseWriter, statusCode int, body Response) {
	body.Timestamp = time.Now().UTC()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("encoding response", err, zap.Int("status", statusCode))
	}
}

// JSON sends data with the given status
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	write(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	})
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Error sends a failure envelope. A BusinessError contributes its code and
// client-facing message; any other error is reported verbatim.
func Error(w http.ResponseWriter, statusCode int, message string, err error) {
	body := Response{Message: message}
	if err != nil {
		body.Error = err.Error()
		var be *customError.BusinessError
		if errors.As(err, &be) {
			body.Code = be.Code
			body.Error = be.Message
		}
	}
	write(w, statusCode, body)
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case customError.IsValidation(err):
		return http.StatusBadRequest
	case customError.IsNotFound(err):
		return http.StatusNotFound
	case customError.IsInvalidState(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError sends the error with the status matching its kind. Internal
// errors are logged and their detail is not exposed.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.CtxError(r.Context(), "request failed", err,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		write(w, status, Response{Message: http.StatusText(status), Error: "internal server error"})
		return
	}
	Error(w, status, http.StatusText(status), err)
}
