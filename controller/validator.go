package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"helpbot/lib"
	"helpbot/service"
)

// MessageRequest is the body accepted by POST /api/v1/messages.
type MessageRequest struct {
	Content string  `json:"content" validate:"min=1,max=500"`
	UserID  *string `json:"user_id" validate:"omitempty,max=50"`
}

// Input converts a validated request into pipeline input.
func (r MessageRequest) Input() service.MessageInput {
	return service.MessageInput{Content: r.Content, UserID: r.UserID}
}

// ValidationError is returned by ParseMessageRequest when the body is
// rejected. Detail is either a string or a list of lib.FieldError.
type ValidationError struct {
	Message string
	Detail  any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Detail)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseMessageRequest decodes and schema-checks a raw request body.
// content is required, 1 to 500 characters; user_id is optional, at most
// 50 characters; any other key is rejected.
func ParseMessageRequest(body []byte) (*MessageRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &ValidationError{Message: "Invalid JSON payload", Detail: err.Error()}
	}
	if fields == nil {
		return nil, &ValidationError{Message: "Invalid JSON payload", Detail: "request body must be a JSON object"}
	}

	var req MessageRequest
	var errs []lib.FieldError

	if raw, ok := fields["content"]; !ok || isNull(raw) {
		errs = append(errs, fieldError("content", "field required", "value_error.missing"))
	} else if err := json.Unmarshal(raw, &req.Content); err != nil {
		errs = append(errs, fieldError("content", "str type expected", "type_error.str"))
	}

	if raw, ok := fields["user_id"]; ok && !isNull(raw) {
		var userID string
		if err := json.Unmarshal(raw, &userID); err != nil {
			errs = append(errs, fieldError("user_id", "str type expected", "type_error.str"))
		} else {
			req.UserID = &userID
		}
	}

	extra := make([]string, 0)
	for key := range fields {
		if key != "content" && key != "user_id" {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)

	errs = append(errs, schemaErrors(req, errs)...)
	for _, key := range extra {
		errs = append(errs, fieldError(key, "extra fields not permitted", "value_error.extra"))
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Message: "Validation errors", Detail: errs}
	}
	return &req, nil
}

// schemaErrors runs the struct constraints, skipping fields that already
// failed to decode.
func schemaErrors(req MessageRequest, decodeErrs []lib.FieldError) []lib.FieldError {
	failed := make(map[string]bool, len(decodeErrs))
	for _, e := range decodeErrs {
		failed[e.Loc[0]] = true
	}

	err := validate.Struct(req)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	var out []lib.FieldError
	for _, fe := range verrs {
		if failed[fe.Field()] {
			continue
		}
		switch fe.Tag() {
		case "min":
			out = append(out, fieldError(fe.Field(),
				fmt.Sprintf("ensure this value has at least %s characters", fe.Param()),
				"value_error.any_str.min_length"))
		case "max":
			out = append(out, fieldError(fe.Field(),
				fmt.Sprintf("ensure this value has at most %s characters", fe.Param()),
				"value_error.any_str.max_length"))
		default:
			out = append(out, fieldError(fe.Field(), fe.Error(), "value_error"))
		}
	}
	return out
}

func fieldError(field, msg, typ string) lib.FieldError {
	return lib.FieldError{Loc: []string{field}, Msg: msg, Type: typ}
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
