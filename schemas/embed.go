// Package schemas embeds the JSON Schemas for inbound fill messages and candidate records.
package schemas

import "embed"

// Schema file names.
const (
	FillMessage = "fill_message.schema.json"
	Candidate   = "candidate.schema.json"
)

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Read returns the content of a schema file.
func Read(name string) ([]byte, error) {
	return FS.ReadFile(name)
}
