package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/form-filler/internal/types"
)

const candidateColumns = `id, first_name, middle_name, last_name, passport_number,
	passport_expiry_date, passport_issue_date, passport_issue_place, email, gender,
	mobile_number, date_of_birth, status, photo, created_at, updated_at`

// ListCandidates retrieves every active candidate ordered by id
func (db *DB) ListCandidates(ctx context.Context) ([]types.Candidate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE status = 'active' ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[candidateRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates: %w", err)
	}

	out := make([]types.Candidate, 0, len(records))
	for _, r := range records {
		out = append(out, r.toCandidate())
	}
	return out, nil
}

// List implements candidates.Source.
func (db *DB) List(ctx context.Context) ([]types.Candidate, error) {
	return db.ListCandidates(ctx)
}

// GetCandidate retrieves a candidate by id. It returns nil when not found.
func (db *DB) GetCandidate(ctx context.Context, id string) (*types.Candidate, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`,
		numericID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	record, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[candidateRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	c := record.toCandidate()
	return &c, nil
}

// CreateCandidate inserts a candidate and returns its id
func (db *DB) CreateCandidate(ctx context.Context, input *CandidateInput) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (first_name, middle_name, last_name, passport_number,
		        passport_expiry_date, passport_issue_date, passport_issue_place, email,
		        gender, mobile_number, date_of_birth, photo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		input.FirstName, input.MiddleName, input.LastName, input.PassportNumber,
		input.PassportExpiryDate, input.PassportIssueDate, input.PassportIssuePlace, input.Email,
		input.Gender, input.MobileNumber, input.DateOfBirth, input.Photo,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create candidate: %w", err)
	}
	return id, nil
}
