package model

import "time"

// Presentation is one of the fixed song rotations danced inside a heat.
// Presentations are not scored on their own.
type Presentation struct {
	Sequence int           `json:"sequence"`
	Style    string        `json:"style"`
	Duration time.Duration `json:"duration"`
}

// Heat groups a subset of participants judged together in the HEATS phase.
type Heat struct {
	ID            string         `json:"id"`
	Number        int            `json:"number"`
	Leaders       []string       `json:"leaders"`   // participant ids
	Followers     []string       `json:"followers"` // participant ids
	Presentations []Presentation `json:"presentations"`
}

// Clone returns a copy that shares no slices with h.
func (h Heat) Clone() Heat {
	h.Leaders = append([]string(nil), h.Leaders...)
	h.Followers = append([]string(nil), h.Followers...)
	h.Presentations = append([]Presentation(nil), h.Presentations...)
	return h
}

// Members returns every participant id in the heat, leaders first.
func (h Heat) Members() []string {
	out := make([]string, 0, len(h.Leaders)+len(h.Followers))
	out = append(out, h.Leaders...)
	return append(out, h.Followers...)
}

// HasMember reports whether participantID belongs to the heat.
func (h Heat) HasMember(participantID string) bool {
	for _, id := range h.Leaders {
		if id == participantID {
			return true
		}
	}
	for _, id := range h.Followers {
		if id == participantID {
			return true
		}
	}
	return false
}
