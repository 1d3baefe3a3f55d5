package types

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FillRequest asks the API to fill an HTML document in memory.
// Message is a FILL_FORM envelope or a bare candidate record; when it is
// absent, CandidateID is looked up in the server's candidate source.
type FillRequest struct {
	Message     json.RawMessage `json:"message,omitempty" validate:"required_without=CandidateID"`
	HTML        string          `json:"html" validate:"required"`
	CandidateID string          `json:"candidate_id,omitempty"`
}

// FillBatchRequest fills several documents with the same candidate.
type FillBatchRequest struct {
	Message     json.RawMessage `json:"message,omitempty" validate:"required_without=CandidateID"`
	Pages       []string        `json:"pages" validate:"required,min=1,max=50,dive,required"`
	CandidateID string          `json:"candidate_id,omitempty"`
}

// FillURLRequest asks the API to open a URL in a browser and fill it live.
type FillURLRequest struct {
	Message     json.RawMessage `json:"message,omitempty" validate:"required_without=CandidateID"`
	URL         string          `json:"url" validate:"required,http_url"`
	CandidateID string          `json:"candidate_id,omitempty"`
}

// FillResponse reports one fill and the resulting document.
type FillResponse struct {
	RunID  uuid.UUID   `json:"run_id"`
	State  FillState   `json:"state"`
	Reason string      `json:"reason,omitempty"`
	Report *FillReport `json:"report,omitempty"`
	HTML   string      `json:"html,omitempty"`
}

// FillBatchResponse holds one FillResponse per requested page, in order.
type FillBatchResponse struct {
	Results []FillResponse `json:"results"`
}

// NewFillResponse builds a response from an outcome.
func NewFillResponse(outcome Outcome, html string) FillResponse {
	return FillResponse{
		RunID:  outcome.RunID,
		State:  outcome.State,
		Reason: outcome.Reason,
		Report: outcome.Report,
		HTML:   html,
	}
}

// CandidateListResponse lists candidates in source order.
type CandidateListResponse struct {
	Candidates []Candidate `json:"candidates"`
	Count      int         `json:"count"`
}

// AliasEntry is one row of the alias table.
type AliasEntry struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases"`
}

var requestValidator = validator.New()

// Validate validates the FillRequest using the validator.
func (r *FillRequest) Validate() error {
	return requestValidator.Struct(r)
}

// Validate validates the FillBatchRequest using the validator.
func (r *FillBatchRequest) Validate() error {
	return requestValidator.Struct(r)
}

// Validate validates the FillURLRequest using the validator.
func (r *FillURLRequest) Validate() error {
	return requestValidator.Struct(r)
}
