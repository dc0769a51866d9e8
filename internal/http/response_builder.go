// Fluent builder for fragment responses: HX-Trigger headers for the
// section controllers plus consistent HTML error bodies.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// FragmentResponseBuilder provides a fluent API for fragment responses.
type FragmentResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewFragmentResponse creates a new response builder with default 200 status.
func NewFragmentResponse() *FragmentResponseBuilder {
	return &FragmentResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *FragmentResponseBuilder) Status(code int) *FragmentResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *FragmentResponseBuilder) Trigger(name string, data interface{}) *FragmentResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerExpenseCreated adds the expense:created trigger with the plan hash.
func (b *FragmentResponseBuilder) TriggerExpenseCreated(hashID string) *FragmentResponseBuilder {
	return b.Trigger("expense:created", map[string]string{"plan": hashID})
}

// TriggerExpenseUpdated adds the expense:updated trigger with the plan hash.
func (b *FragmentResponseBuilder) TriggerExpenseUpdated(hashID string) *FragmentResponseBuilder {
	return b.Trigger("expense:updated", map[string]string{"plan": hashID})
}

// TriggerExpenseDeleted adds the expense:deleted trigger with the plan hash.
func (b *FragmentResponseBuilder) TriggerExpenseDeleted(hashID string) *FragmentResponseBuilder {
	return b.Trigger("expense:deleted", map[string]string{"plan": hashID})
}

// TriggerPlanChanged adds the plan:changed trigger with the plan hash.
func (b *FragmentResponseBuilder) TriggerPlanChanged(hashID string) *FragmentResponseBuilder {
	return b.Trigger("plan:changed", map[string]string{"plan": hashID})
}

// Header adds a custom header to the response.
func (b *FragmentResponseBuilder) Header(name, value string) *FragmentResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *FragmentResponseBuilder) Body(content []byte) *FragmentResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *FragmentResponseBuilder) BodyHTML(html string) *FragmentResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *FragmentResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorFragment creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorFragment(statusCode int, message string) *FragmentResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewFragmentResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestFragment creates a 400 Bad Request error response.
func BadRequestFragment(message string) *FragmentResponseBuilder {
	return ErrorFragment(http.StatusBadRequest, message)
}

// UnprocessableFragment creates a 422 Unprocessable Entity error response.
func UnprocessableFragment(message string) *FragmentResponseBuilder {
	return ErrorFragment(http.StatusUnprocessableEntity, message)
}

// InternalErrorFragment creates a 500 Internal Server Error response.
func InternalErrorFragment(message string) *FragmentResponseBuilder {
	return ErrorFragment(http.StatusInternalServerError, message)
}

// NotFoundFragment creates a 404 Not Found error response.
func NotFoundFragment(message string) *FragmentResponseBuilder {
	return ErrorFragment(http.StatusNotFound, message)
}
