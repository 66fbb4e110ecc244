package model

import (
	"strings"
	"time"
)

// Phase is a competition stage.
type Phase string

// Competition phases in progression order.
const (
	PhaseHeats     Phase = "HEATS"
	PhaseSemifinal Phase = "SEMIFINAL"
	PhaseFinal     Phase = "FINAL"
)

// Score value bounds, inclusive.
const (
	MinScoreValue = 1
	MaxScoreValue = 10
	// HighScoreThreshold is the value from which an entry counts as a high score.
	HighScoreThreshold = 8
)

// ParsePhase normalizes a phase string into a Phase.
func ParsePhase(s string) (Phase, error) {
	const op = "model.parse_phase"
	switch Phase(strings.ToUpper(strings.TrimSpace(s))) {
	case PhaseHeats:
		return PhaseHeats, nil
	case PhaseSemifinal:
		return PhaseSemifinal, nil
	case PhaseFinal:
		return PhaseFinal, nil
	default:
		return "", NewKind(op, ErrValidation, "unknown phase "+strings.TrimSpace(s))
	}
}

// Score is one accepted scoring event.
type Score struct {
	ID            string    `json:"id"`
	JudgeID       string    `json:"judgeId"`
	ParticipantID string    `json:"participantId"`
	Value         int       `json:"value"`
	Phase         Phase     `json:"phase"`
	HeatID        string    `json:"heatId,omitempty"` // set only for HEATS
	CreatedAt     time.Time `json:"createdAt"`
}

// ScoreKey identifies the single accepted score of a judge for a participant
// within a phase (and heat).
type ScoreKey struct {
	JudgeID       string
	ParticipantID string
	Phase         Phase
	HeatID        string
}

// Key returns the uniqueness key of s.
func (s Score) Key() ScoreKey {
	return ScoreKey{JudgeID: s.JudgeID, ParticipantID: s.ParticipantID, Phase: s.Phase, HeatID: s.HeatID}
}

// ValidValue reports whether v is inside the accepted score range.
func ValidValue(v int) bool {
	return v >= MinScoreValue && v <= MaxScoreValue
}

// ScoreQuery filters scores. Empty ParticipantIDs matches every participant;
// empty HeatID matches every heat.
type ScoreQuery struct {
	ParticipantIDs []string
	Phase          Phase
	HeatID         string
}

// Matches reports whether s satisfies the query.
func (q ScoreQuery) Matches(s Score) bool {
	if s.Phase != q.Phase {
		return false
	}
	if q.HeatID != "" && s.HeatID != q.HeatID {
		return false
	}
	if len(q.ParticipantIDs) == 0 {
		return true
	}
	for _, id := range q.ParticipantIDs {
		if id == s.ParticipantID {
			return true
		}
	}
	return false
}
