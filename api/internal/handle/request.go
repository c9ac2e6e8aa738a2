package handle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type promptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type styleRequest struct {
	Prompt         string `json:"prompt" validate:"required"`
	SelectedOption *int   `json:"selectedOption" validate:"required,min=0,max=2"`
}

type refineRequest struct {
	Prompt                string `json:"prompt" validate:"required"`
	SelectedOption        *int   `json:"selectedOption" validate:"required,min=0,max=2"`
	RefinementInstruction string `json:"refinementInstruction" validate:"required"`
	IsCustom              bool   `json:"isCustom"`
}

type uploadRequest struct {
	ImageBase64 string `json:"imageBase64" validate:"required"`
	Prompt      string `json:"prompt"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON читает тело (с лимитом) и валидирует; при ошибке сам пишет 4xx и возвращает false.
func (h *Handle) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBody)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var (
			syntaxErr *json.SyntaxError
			typeErr   *json.UnmarshalTypeError
			tooLarge  *http.MaxBytesError
			code      = http.StatusBadRequest
			msg       string
		)
		switch {
		case errors.Is(err, io.EOF):
			msg = "body must not be empty"
		case errors.Is(err, io.ErrUnexpectedEOF):
			msg = "body contains badly-formed json"
		case errors.As(err, &tooLarge):
			code = http.StatusRequestEntityTooLarge
			msg = fmt.Sprintf("body must not be larger than %d bytes", h.MaxBody)
		case errors.As(err, &syntaxErr):
			msg = fmt.Sprintf("body contains badly-formed json at character %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			msg = fmt.Sprintf("body contains incorrect json type for %q", typeErr.Field)
		default:
			msg = "bad json: " + err.Error()
		}
		writeJSON(w, code, errorBody{Error: msg})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validationMessage(err)})
		return false
	}
	return true
}

// validationMessage: первое нарушение в виде "prompt is required".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max":
		return fe.Field() + " must be between 0 and 2"
	default:
		return fe.Field() + " is invalid"
	}
}
