// Package types provides type definitions for structured data used throughout the form-filler system.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Keys of a candidate record that are never written into a form.
const (
	KeyID        = "id"
	KeyCreatedAt = "created_at"
	KeyUpdatedAt = "updated_at"
	KeyStatus    = "status"
	KeyPhoto     = "photo"
)

// excludedKeys are identity/audit fields that never reach a form.
var excludedKeys = map[string]bool{
	KeyID:        true,
	KeyCreatedAt: true,
	KeyUpdatedAt: true,
	KeyStatus:    true,
	KeyPhoto:     true,
}

// IsExcludedKey reports whether key is an identity/audit field.
func IsExcludedKey(key string) bool {
	return excludedKeys[key]
}

// Field is one named value of a candidate record.
type Field struct {
	Key   string
	Value any
}

// Candidate is a flat candidate record that keeps the key order of its source.
// Values are whatever JSON decoded them to: string, json.Number, bool, nil,
// or (for malformed records) a nested map or slice.
type Candidate struct {
	Fields []Field
}

// NewCandidate builds a candidate from fields in the given order.
func NewCandidate(fields ...Field) Candidate {
	return Candidate{Fields: fields}
}

// Get returns the value stored under key.
func (c Candidate) Get(key string) (any, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// ID returns the candidate identifier as a string, or "" when absent.
func (c Candidate) ID() string {
	v, ok := c.Get(KeyID)
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// Eligible returns the fields that a fill operation attempts, in record order.
func (c Candidate) Eligible() []Field {
	out := make([]Field, 0, len(c.Fields))
	for _, f := range c.Fields {
		if !Truthy(f.Value) || IsExcludedKey(f.Key) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// UnmarshalJSON decodes a JSON object while preserving key order.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read candidate: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("candidate must be a JSON object")
	}

	fields := make([]Field, 0, 16)
	index := make(map[string]int, 16)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read candidate key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected candidate key token %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to read candidate field %q: %w", key, err)
		}
		// A repeated key keeps its first position and takes the last value.
		if i, seen := index[key]; seen {
			fields[i].Value = value
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to close candidate object: %w", err)
	}

	c.Fields = fields
	return nil
}

// MarshalJSON encodes the candidate as a JSON object in field order.
func (c Candidate) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode candidate field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Truthy mirrors how loosely typed records treat empty values:
// nil, "", false and numeric zero are falsy; everything else is truthy.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val != ""
		}
		return f != 0
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	default:
		return true
	}
}

// Stringify renders a scalar record value the way it is written into a form.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// IsScalar reports whether v can be written into a single form control.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, json.Number, bool, float64, int, int64:
		return true
	default:
		return false
	}
}

// CandidateRecord is the typed view of a candidate used for listing and printing.
type CandidateRecord struct {
	ID                 string `json:"id"`
	FirstName          string `json:"first_name"`
	MiddleName         string `json:"middle_name,omitempty"`
	LastName           string `json:"last_name"`
	PassportNumber     string `json:"passport_number"`
	PassportExpiryDate string `json:"passport_expiry_date"`
	PassportIssueDate  string `json:"passport_issue_date"`
	PassportIssuePlace string `json:"passport_issue_place"`
	Email              string `json:"email"`
	Gender             string `json:"gender"`
	MobileNumber       string `json:"mobile_number"`
	DateOfBirth        string `json:"date_of_birth"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
	Photo              string `json:"photo,omitempty"`
}

// Record returns the typed view of the candidate. Unknown keys are dropped.
func (c Candidate) Record() CandidateRecord {
	get := func(key string) string {
		v, _ := c.Get(key)
		if !IsScalar(v) {
			return ""
		}
		return Stringify(v)
	}
	return CandidateRecord{
		ID:                 get(KeyID),
		FirstName:          get("first_name"),
		MiddleName:         get("middle_name"),
		LastName:           get("last_name"),
		PassportNumber:     get("passport_number"),
		PassportExpiryDate: get("passport_expiry_date"),
		PassportIssueDate:  get("passport_issue_date"),
		PassportIssuePlace: get("passport_issue_place"),
		Email:              get("email"),
		Gender:             get("gender"),
		MobileNumber:       get("mobile_number"),
		DateOfBirth:        get("date_of_birth"),
		Status:             get(KeyStatus),
		CreatedAt:          get(KeyCreatedAt),
		UpdatedAt:          get(KeyUpdatedAt),
		Photo:              get(KeyPhoto),
	}
}

// Initials returns the upper-case first letters of first and last name.
func (r CandidateRecord) Initials() string {
	initial := func(s string) string {
		if s == "" {
			return ""
		}
		ch, _ := utf8.DecodeRuneInString(s)
		return strings.ToUpper(string(ch))
	}
	return initial(r.FirstName) + initial(r.LastName)
}

// FullName joins first, middle and last name.
func (r CandidateRecord) FullName() string {
	name := r.FirstName
	if r.MiddleName != "" {
		name += " " + r.MiddleName
	}
	if r.LastName != "" {
		name += " " + r.LastName
	}
	return name
}
