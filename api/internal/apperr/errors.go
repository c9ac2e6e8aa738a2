package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeNotConfigured = "NOT_CONFIGURED"
	CodeInternal      = "INTERNAL_ERROR"
)

// Error: ошибка приложения с кодом; для апстримов хранит статус и тело ответа.
type Error struct {
	Code    string
	Message string
	Service string // text | image | storage
	Status  int    // HTTP-статус апстрима, 0 если неизвестен
	Body    string // сырое тело ответа апстрима
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Service != "" {
		b.WriteString(e.Service)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func Upstream(service string, status int, body string, cause error) *Error {
	msg := "upstream request failed"
	if status != 0 {
		msg = "upstream returned non-success status"
	}
	return &Error{
		Code:    CodeUpstream,
		Message: msg,
		Service: service,
		Status:  status,
		Body:    body,
		Cause:   cause,
	}
}

var (
	ErrRateLimited   = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrNotConfigured = &Error{Code: CodeNotConfigured, Message: "feature is not configured"}
)

// Is сравнивает по коду, чтобы errors.Is(err, ErrRateLimited) работал для любых экземпляров.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Service == "" && t.Status == 0 && t.Body == "" && t.Cause == nil
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Details возвращает текст для поля "details" ответа. Тело апстрима, если есть, иначе текст ошибки.
// Секреты из secrets вырезаются.
func Details(err error, secrets ...string) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	var ae *Error
	if errors.As(err, &ae) && ae.Body != "" {
		s = ae.Body
	}
	return Redact(s, secrets...)
}

func Redact(s string, secrets ...string) string {
	for _, sec := range secrets {
		if len(sec) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, sec, "[REDACTED]")
	}
	return s
}
