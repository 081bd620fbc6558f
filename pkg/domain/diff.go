package domain

// StateDiff represents the changes between two conversation states.
// It is serialized to JSON for partial updates on streaming clients.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Stage is set when the cursor moved.
	Stage *int `json:"stage,omitempty"`

	// Answers contains only added or modified keys.
	// Removed keys are present with a nil value.
	Answers map[string]*string `json:"answers,omitempty"`

	// Reset is true when the run restarted (stage back to 0, answers cleared).
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *ConversationState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.Stage != newState.Stage {
		stage := newState.Stage
		diff.Stage = &stage
	}

	diff.Answers = diffAnswers(oldState, newState)

	if oldState != nil && !oldState.IsInitial() && newState.IsInitial() {
		diff.Reset = true
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old, new *ConversationState) map[string]*string {
	delta := make(map[string]*string)

	for k, v := range new.Answers {
		if old != nil {
			if prev, ok := old.Answers[k]; ok && prev == v {
				continue
			}
		}
		val := v
		delta[k] = &val
	}

	if old != nil {
		for k := range old.Answers {
			if _, ok := new.Answers[k]; !ok {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Stage == nil && len(d.Answers) == 0 && !d.Reset
}
