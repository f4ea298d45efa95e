package response

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/logger"
)

// StandardResponse represents the standard API response structure
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse sends a success response with given status code, message, and data
func SuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	response := StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	SendJSON(w, statusCode, response)
}

// ErrorResponse sends an error response with given status code and error message
func ErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	response := StandardResponse{
		Status: "error",
		Error:  errorMsg,
	}
	SendJSON(w, statusCode, response)
}

// AppErrorResponse maps an application error to its HTTP status and safe
// message. Internal details are logged, never sent to the client.
func AppErrorResponse(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}
	ErrorResponse(w, status, apperrors.Message(err))
}

// SendJSON encodes and sends a JSON response
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
