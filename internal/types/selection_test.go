//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_Lifecycle(t *testing.T) {
	s := Selection{Loading: true}
	s = s.Loaded().Toggle()
	assert.True(t, s.DialogOpen)
	assert.False(t, s.Loading)
	assert.False(t, s.Selected())

	s = s.Begin("7")
	assert.True(t, s.Busy("7"))
	assert.False(t, s.Busy("8"))

	done := s.Complete()
	assert.False(t, done.DialogOpen)
	assert.False(t, done.Selected())
	assert.False(t, done.Filling)

	aborted := s.Abort()
	assert.True(t, aborted.DialogOpen, "dialog stays open after abort so the caller can retry")
	assert.False(t, aborted.Selected())
	assert.False(t, aborted.Filling)
}

func TestSelection_IsValueType(t *testing.T) {
	s := Selection{DialogOpen: true}
	_ = s.Begin("1")
	assert.False(t, s.Filling, "transitions return a new value")
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "exact_name", TierExactName.String())
	assert.Equal(t, "exact_id", TierExactID.String())
	assert.Equal(t, "case_insensitive", TierCaseInsensitive.String())
	assert.Equal(t, "substring", TierSubstring.String())
	assert.Equal(t, "none", TierNone.String())
}

func TestFieldStatus_Found(t *testing.T) {
	assert.True(t, StatusFilled.Found())
	assert.True(t, StatusOptionNotMatched.Found())
	assert.False(t, StatusNotFound.Found())
}

func TestOutcome_JSON(t *testing.T) {
	o := Outcome{
		State: StateDone,
		Report: &FillReport{
			Filled:   1,
			Eligible: 2,
			Fields: []FieldResult{
				{Key: "email", Status: StatusFilled, Alias: "email", Tier: TierExactName, Kind: KindText},
				{Key: "gender", Status: StatusNotFound},
			},
		},
	}

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"done"`)
	assert.Contains(t, string(data), `"tier":"exact_name"`)
	assert.NotContains(t, string(data), `"reason"`)
	assert.True(t, o.Completed())
	assert.Equal(t, 1, o.Filled())

	aborted := Outcome{State: StateAborted, Reason: "boom"}
	assert.False(t, aborted.Completed())
	assert.Equal(t, 0, aborted.Filled())
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateFilling.Terminal())
}

func TestTier_UnmarshalText(t *testing.T) {
	var fields []FieldResult
	require.NoError(t, json.Unmarshal([]byte(`[{"key": "email", "tier": "substring"}, {"key": "dob", "tier": "bogus"}]`), &fields))
	assert.Equal(t, TierSubstring, fields[0].Tier)
	assert.Equal(t, TierNone, fields[1].Tier)
}
