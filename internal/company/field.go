package company

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// NotAvailable is rendered for absent fields.
const NotAvailable = "N/A"

// Kind tags which variant a polymorphic field holds.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindSimple
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindStructured:
		return "structured"
	default:
		return "absent"
	}
}

// Shape is implemented by the structured form of each polymorphic field.
type Shape interface {
	LocationDetails | IndustryDetails | CEODetails

	display() string
	simple() string
	check() error
}

// Field is a company attribute that is either free text or a structured
// object. The zero value is absent.
type Field[T Shape] struct {
	kind  Kind
	text  string
	value T
}

// Simple wraps free text. Blank text yields an absent field.
func Simple[T Shape](text string) Field[T] {
	if strings.TrimSpace(text) == "" {
		return Field[T]{}
	}
	return Field[T]{kind: KindSimple, text: text}
}

// Structured wraps a structured value.
func Structured[T Shape](value T) Field[T] {
	return Field[T]{kind: KindStructured, value: value}
}

func (f Field[T]) Kind() Kind { return f.kind }

// IsZero reports whether the field is absent.
func (f Field[T]) IsZero() bool { return f.kind == KindAbsent }

// Text returns the free-text form when the field is simple.
func (f Field[T]) Text() (string, bool) {
	return f.text, f.kind == KindSimple
}

// Value returns the structured form when the field is structured.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.kind == KindStructured
}

// Display renders the field for list and card views.
func (f Field[T]) Display() string {
	switch f.kind {
	case KindSimple:
		return f.text
	case KindStructured:
		if s := f.value.display(); s != "" {
			return s
		}
		return NotAvailable
	default:
		return NotAvailable
	}
}

// SimpleString projects any form down to a single string for simple edit
// mode. Absent fields and structured values without identifying text give "".
func (f Field[T]) SimpleString() string {
	switch f.kind {
	case KindSimple:
		return f.text
	case KindStructured:
		return f.value.simple()
	default:
		return ""
	}
}

// Equal reports whether both fields hold the same variant and content.
func (f Field[T]) Equal(other Field[T]) bool {
	if f.kind != other.kind {
		return false
	}
	switch f.kind {
	case KindSimple:
		return f.text == other.text
	case KindStructured:
		return reflect.DeepEqual(f.value, other.value)
	default:
		return true
	}
}

// Validate checks the structured shape. Simple and absent fields are valid.
func (f Field[T]) Validate() error {
	if f.kind != KindStructured {
		return nil
	}
	return f.value.check()
}

// MarshalJSON writes a string, an object, or null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case KindSimple:
		return json.Marshal(f.text)
	case KindStructured:
		return json.Marshal(f.value)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string, an object, or null. Required structured
// members are checked by Validate so they surface as field errors.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = Field[T]{}
		return nil
	case data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*f = Simple[T](text)
		return nil
	case data[0] == '{':
		var value T
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%w: %v", errShape, err)
		}
		*f = Structured(value)
		return nil
	default:
		return fmt.Errorf("%w: expected string or object", errShape)
	}
}

var errShape = errors.New("invalid field shape")

// LocationDetails is the structured form of a location.
type LocationDetails struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

func (l LocationDetails) display() string {
	return joinNonEmpty(l.City, l.Country)
}

func (l LocationDetails) simple() string { return l.City }

func (l LocationDetails) check() error { return nil }

// IndustryDetails is the structured form of an industry.
type IndustryDetails struct {
	Primary string   `json:"primary"`
	Sectors []string `json:"sectors,omitempty"`
}

func (i IndustryDetails) display() string { return i.Primary }

func (i IndustryDetails) simple() string { return i.Primary }

func (i IndustryDetails) check() error {
	if strings.TrimSpace(i.Primary) == "" {
		return fmt.Errorf("%w: industry primary is required", errShape)
	}
	return nil
}

// CEODetails is the structured form of a chief executive.
type CEODetails struct {
	Name  string `json:"name"`
	Since int    `json:"since,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

func (c CEODetails) display() string { return c.Name }

func (c CEODetails) simple() string { return c.Name }

func (c CEODetails) check() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: ceo name is required", errShape)
	}
	return nil
}

type (
	Location = Field[LocationDetails]
	Industry = Field[IndustryDetails]
	CEO      = Field[CEODetails]
)

// LocationFromText packages free text entered in advanced mode. Blank input
// clears the field.
func LocationFromText(text string) Location {
	text = strings.TrimSpace(text)
	if text == "" {
		return Location{}
	}
	return Structured(LocationDetails{City: text})
}

// IndustryFromText packages free text entered in advanced mode.
func IndustryFromText(text string) Industry {
	text = strings.TrimSpace(text)
	if text == "" {
		return Industry{}
	}
	return Structured(IndustryDetails{Primary: text})
}

// CEOFromText packages free text entered in advanced mode.
func CEOFromText(text string) CEO {
	text = strings.TrimSpace(text)
	if text == "" {
		return CEO{}
	}
	return Structured(CEODetails{Name: text})
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
