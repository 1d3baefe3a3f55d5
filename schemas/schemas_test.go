package schemas

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/form-filler/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schemaFiles = []string{
	FillMessage,
	Candidate,
}

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := Read(schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var v map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &v), "schema file should be valid JSON: %s", schemaFile)
			assert.Contains(t, v, "$schema")
			assert.Contains(t, v, "type")
		})
	}
}

func TestAllSchemaFiles_Compile(t *testing.T) {
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := Read(schemaFile)
			require.NoError(t, err)

			_, err = schemas.Compile(schemaFile, data)
			assert.NoError(t, err)
		})
	}
}

func TestFillMessageSchema(t *testing.T) {
	data, err := Read(FillMessage)
	require.NoError(t, err)

	tests := []struct {
		name      string
		document  string
		wantError bool
	}{
		{"object payload", `{"type": "FILL_FORM", "payload": {"first_name": "Ana"}}`, false},
		{"array payload", `{"type": "FILL_FORM", "payload": [{"first_name": "Ana"}]}`, false},
		{"missing payload", `{"type": "FILL_FORM"}`, true},
		{"empty array", `{"type": "FILL_FORM", "payload": []}`, true},
		{"scalar payload", `{"type": "FILL_FORM", "payload": "Ana"}`, true},
		{"array of scalars", `{"type": "FILL_FORM", "payload": ["Ana"]}`, true},
		{"empty type", `{"type": "", "payload": {}}`, true},
		{"unexpected property", `{"type": "FILL_FORM", "payload": {}, "extra": 1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(string(data), tt.document)
			if tt.wantError {
				var validationErr *schemas.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCandidateSchema(t *testing.T) {
	data, err := Read(Candidate)
	require.NoError(t, err)

	tests := []struct {
		name      string
		document  string
		wantError bool
	}{
		{"full record", `{"id": 1, "first_name": "Ana", "mobile_number": 555, "photo": null, "status": "active"}`, false},
		{"string id", `{"id": "c-1"}`, false},
		{"unknown keys pass through", `{"nickname": {"any": "thing"}}`, false},
		{"nested known key", `{"first_name": {"given": "Ana"}}`, true},
		{"array known key", `{"email": ["a@x.com"]}`, true},
		{"not an object", `["Ana"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(string(data), tt.document)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
