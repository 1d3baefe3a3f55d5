package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/form-filler/internal/types"
)

// dateLayout is how DATE columns are rendered into records; it is the value
// format native date inputs accept.
const dateLayout = "2006-01-02"

// candidateRow is one row of the candidates table
type candidateRow struct {
	ID                 int64      `db:"id"`
	FirstName          string     `db:"first_name"`
	MiddleName         *string    `db:"middle_name"`
	LastName           string     `db:"last_name"`
	PassportNumber     string     `db:"passport_number"`
	PassportExpiryDate *time.Time `db:"passport_expiry_date"`
	PassportIssueDate  *time.Time `db:"passport_issue_date"`
	PassportIssuePlace string     `db:"passport_issue_place"`
	Email              string     `db:"email"`
	Gender             string     `db:"gender"`
	MobileNumber       string     `db:"mobile_number"`
	DateOfBirth        *time.Time `db:"date_of_birth"`
	Status             string     `db:"status"`
	Photo              *string    `db:"photo"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optionalDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// toCandidate converts the row into a record with the backend's key order.
func (r candidateRow) toCandidate() types.Candidate {
	return types.NewCandidate(
		types.Field{Key: types.KeyID, Value: r.ID},
		types.Field{Key: "first_name", Value: r.FirstName},
		types.Field{Key: "middle_name", Value: optionalString(r.MiddleName)},
		types.Field{Key: "last_name", Value: r.LastName},
		types.Field{Key: "passport_number", Value: r.PassportNumber},
		types.Field{Key: "passport_expiry_date", Value: optionalDate(r.PassportExpiryDate)},
		types.Field{Key: "passport_issue_date", Value: optionalDate(r.PassportIssueDate)},
		types.Field{Key: "passport_issue_place", Value: r.PassportIssuePlace},
		types.Field{Key: "email", Value: r.Email},
		types.Field{Key: "gender", Value: r.Gender},
		types.Field{Key: "mobile_number", Value: r.MobileNumber},
		types.Field{Key: types.KeyCreatedAt, Value: r.CreatedAt.UTC().Format(time.RFC3339)},
		types.Field{Key: types.KeyUpdatedAt, Value: r.UpdatedAt.UTC().Format(time.RFC3339)},
		types.Field{Key: types.KeyStatus, Value: r.Status},
		types.Field{Key: "date_of_birth", Value: optionalDate(r.DateOfBirth)},
		types.Field{Key: types.KeyPhoto, Value: optionalString(r.Photo)},
	)
}

// CandidateInput holds the fields for inserting a candidate
type CandidateInput struct {
	FirstName          string
	MiddleName         *string
	LastName           string
	PassportNumber     string
	PassportExpiryDate *time.Time
	PassportIssueDate  *time.Time
	PassportIssuePlace string
	Email              string
	Gender             string
	MobileNumber       string
	DateOfBirth        *time.Time
	Photo              *string
}

// FillRun is one row of the fill audit log
type FillRun struct {
	ID          uuid.UUID           `json:"id"`
	CandidateID string              `json:"candidate_id"`
	State       string              `json:"state"`
	Filled      int                 `json:"filled"`
	Eligible    int                 `json:"eligible"`
	Reason      *string             `json:"reason,omitempty"`
	DurationMs  int64               `json:"duration_ms"`
	Fields      []types.FieldResult `json:"fields,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}
