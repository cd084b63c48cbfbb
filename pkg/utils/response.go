package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ResponseCode business response code
type ResponseCode int

// Response codes
const (
	CodeSuccess           ResponseCode = 0
	CodeInvalidParam      ResponseCode = 40001
	CodeValidationFailed  ResponseCode = 40002
	CodeUnauthorized      ResponseCode = 40100
	CodeForbidden         ResponseCode = 40300
	CodeNotFound          ResponseCode = 40400
	CodeConflict          ResponseCode = 40900
	CodeIllegalTransition ResponseCode = 42200
	CodeTooManyRequests   ResponseCode = 42900
	CodeInternalError     ResponseCode = 50000
)

// HTTPStatus maps a response code to an HTTP status code
func (c ResponseCode) HTTPStatus() int {
	switch c {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeIllegalTransition:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Response standard response structure
type Response struct {
	Code      ResponseCode `json:"code"`
	Message   string       `json:"message"`
	Data      interface{}  `json:"data,omitempty"`
	Errors    []string     `json:"errors,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// SuccessResponse returns success response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      CodeSuccess,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// Error returns error response for a business code
func Error(c *gin.Context, code ResponseCode, message string) {
	c.JSON(code.HTTPStatus(), Response{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// ErrorResponse renders an error through the taxonomy in errors.go.
// Validation errors carry the complete reason list in one response.
func ErrorResponse(c *gin.Context, err error) {
	appErr, ok := IsAppError(err)
	if !ok {
		Error(c, CodeInternalError, err.Error())
		return
	}
	c.JSON(appErr.Code.HTTPStatus(), Response{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Errors:    appErr.Details,
		Timestamp: time.Now().Unix(),
	})
}

// PageResponse page response structure
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

// SuccessPageResponse returns success page response
func SuccessPageResponse(c *gin.Context, list interface{}, total int64, page, size int) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data: PageResponse{
			List:  list,
			Total: total,
			Page:  page,
			Size:  size,
		},
		Timestamp: time.Now().Unix(),
	})
}
