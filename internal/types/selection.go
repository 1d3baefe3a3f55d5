package types

// Selection is the launcher/dialog state that surrounds a fill operation.
// It is passed into and returned from the orchestrator instead of living in
// ambient UI state.
type Selection struct {
	CandidateID string `json:"candidate_id,omitempty"`
	DialogOpen  bool   `json:"dialog_open"`
	Loading     bool   `json:"loading"`
	Filling     bool   `json:"filling"`
}

// Selected reports whether a candidate is currently selected.
func (s Selection) Selected() bool {
	return s.CandidateID != ""
}

// Toggle opens or closes the dialog.
func (s Selection) Toggle() Selection {
	s.DialogOpen = !s.DialogOpen
	return s
}

// Loaded marks the candidate list as loaded.
func (s Selection) Loaded() Selection {
	s.Loading = false
	return s
}

// Begin selects a candidate and enters the filling state.
func (s Selection) Begin(candidateID string) Selection {
	s.CandidateID = candidateID
	s.Filling = true
	return s
}

// Complete closes the dialog and clears the selection after a successful fill.
func (s Selection) Complete() Selection {
	s.DialogOpen = false
	s.CandidateID = ""
	s.Filling = false
	return s
}

// Abort clears the selection but leaves the dialog open so the caller can retry.
func (s Selection) Abort() Selection {
	s.CandidateID = ""
	s.Filling = false
	return s
}

// Busy reports whether the given candidate is being filled right now.
func (s Selection) Busy(candidateID string) bool {
	return s.Filling && s.CandidateID == candidateID
}
