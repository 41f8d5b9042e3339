package decode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/nao1215/replaysheet/internal/model"
)

// Decode errors.
var (
	// ErrEmptyPayload is returned for a payload that is empty or whitespace.
	ErrEmptyPayload = errors.New("empty record payload")

	// ErrMissingField is returned when the payload lacks flyweight.texts or
	// actions.
	ErrMissingField = errors.New("missing required field")
)

// DecodeError describes a payload that could not be turned into a record.
type DecodeError struct {
	// Field is the missing or malformed field, if known.
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("failed to decode record payload: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("failed to decode record payload: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// rawRecord mirrors model.Record with pointers so absent fields can be told
// apart from empty ones.
type rawRecord struct {
	Flyweight *struct {
		Texts *[]string `json:"texts"`
	} `json:"flyweight"`
	Actions *string `json:"actions"`
}

// Decode parses payload into a record.
//
// Both flyweight.texts and actions must be present; an empty text pool or
// an empty action log is valid. Any failure is returned as *DecodeError.
func Decode(payload string) (*model.Record, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, &DecodeError{Err: ErrEmptyPayload}
	}

	var raw rawRecord
	if err := json5.NewDecoder(strings.NewReader(payload)).Decode(&raw); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if raw.Flyweight == nil || raw.Flyweight.Texts == nil {
		return nil, &DecodeError{Field: "flyweight.texts", Err: ErrMissingField}
	}
	if raw.Actions == nil {
		return nil, &DecodeError{Field: "actions", Err: ErrMissingField}
	}

	return &model.Record{
		Flyweight: model.Flyweight{Texts: *raw.Flyweight.Texts},
		Actions:   *raw.Actions,
	}, nil
}
