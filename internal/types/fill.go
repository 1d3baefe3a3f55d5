package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/form-filler/internal/dom"
)

// Tier is one precision level of field resolution, from most to least precise.
type Tier int

const (
	TierNone Tier = iota
	TierExactName
	TierExactID
	TierCaseInsensitive
	TierSubstring
)

// String returns the tier name used in logs and reports.
func (t Tier) String() string {
	switch t {
	case TierExactName:
		return "exact_name"
	case TierExactID:
		return "exact_id"
	case TierCaseInsensitive:
		return "case_insensitive"
	case TierSubstring:
		return "substring"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name. Unknown names decode to TierNone.
func (t *Tier) UnmarshalText(text []byte) error {
	*t = TierNone
	for _, candidate := range []Tier{TierExactName, TierExactID, TierCaseInsensitive, TierSubstring} {
		if candidate.String() == string(text) {
			*t = candidate
		}
	}
	return nil
}

// ResolvedField is a located element bound to the alias and tier that found it.
type ResolvedField struct {
	Element dom.Element
	Alias   string
	Tier    Tier
}

// ControlKind is the coercion branch chosen for an element.
type ControlKind string

const (
	KindSelect   ControlKind = "select"
	KindRadio    ControlKind = "radio"
	KindCheckbox ControlKind = "checkbox"
	KindDate     ControlKind = "date"
	KindText     ControlKind = "text"
)

// AssignResult describes a value assignment.
// Applied is false only for a select whose options did not match.
type AssignResult struct {
	Kind    ControlKind
	Applied bool
	Value   string
}

// FieldStatus is the per-field outcome of a fill.
type FieldStatus string

const (
	// StatusFilled: an element was located and the value written.
	StatusFilled FieldStatus = "filled"
	// StatusOptionNotMatched: a select was located but no option matched.
	// It still counts towards FillReport.Filled.
	StatusOptionNotMatched FieldStatus = "option_not_matched"
	// StatusNotFound: no alias matched any element.
	StatusNotFound FieldStatus = "not_found"
)

// Found reports whether the status counts as a located field.
func (s FieldStatus) Found() bool {
	return s == StatusFilled || s == StatusOptionNotMatched
}

// FieldResult is the outcome for one eligible data field.
type FieldResult struct {
	Key        string      `json:"key"`
	Status     FieldStatus `json:"status"`
	Alias      string      `json:"alias,omitempty"`
	Tier       Tier        `json:"tier,omitempty"`
	Kind       ControlKind `json:"kind,omitempty"`
	ElementKey string      `json:"element_key,omitempty"`
}

// FillReport aggregates one fill operation.
type FillReport struct {
	RunID       uuid.UUID     `json:"run_id"`
	CandidateID string        `json:"candidate_id,omitempty"`
	Filled      int           `json:"filled"`
	Eligible    int           `json:"eligible"`
	Fields      []FieldResult `json:"fields"`
	Duration    time.Duration `json:"duration_ns"`
}

// FillState is a state of the fill state machine.
type FillState string

const (
	StateIdle         FillState = "idle"
	StateFilling      FillState = "filling"
	StateResolving    FillState = "resolving"
	StateAssigning    FillState = "assigning"
	StateNotifying    FillState = "notifying"
	StateHighlighting FillState = "highlighting"
	StateSummarizing  FillState = "summarizing"
	StateDone         FillState = "done"
	StateAborted      FillState = "aborted"
)

// Terminal reports whether no further transitions follow.
func (s FillState) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Outcome is the two-valued result of a fill: completed with a report, or aborted with a reason.
type Outcome struct {
	RunID  uuid.UUID   `json:"run_id"`
	State  FillState   `json:"state"`
	Report *FillReport `json:"report,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// Completed reports whether the fill reached StateDone.
func (o Outcome) Completed() bool {
	return o.State == StateDone
}

// Filled returns the number of located fields, zero when aborted.
func (o Outcome) Filled() int {
	if o.Report == nil {
		return 0
	}
	return o.Report.Filled
}
