package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Envelope is the shape of every JSON response the API emits. Data and
// Error are mutually exclusive; Meta is always present so clients can
// report a request ID with any support ticket.
type Envelope struct {
	Data  interface{} `json:"data"`
	Error *ErrorBody  `json:"error,omitempty"`
	Meta  Meta        `json:"metadata"`
}

// ErrorBody carries a machine-readable code plus an optional per-field
// breakdown for validation failures.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta holds request tracing information.
type Meta struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Success writes a data envelope with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{Data: data, Meta: meta(c)})
}

// Fail writes an error envelope without field detail.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, Envelope{
		Error: &ErrorBody{Code: code, Message: GetMessage(code)},
		Meta:  meta(c),
	})
}

// FailWithFields writes an error envelope carrying field-level validation
// messages.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, Envelope{
		Error: &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
		Meta:  meta(c),
	})
}

// AbortFail writes an error envelope and stops the middleware chain. Used
// by auth middleware so handlers never run with missing claims.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, Envelope{
		Error: &ErrorBody{Code: code, Message: GetMessage(code)},
		Meta:  meta(c),
	})
}

func meta(c *gin.Context) Meta {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Meta{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
