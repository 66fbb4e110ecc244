package model

import "time"

// Cohort is a frozen set of participants per role. Entries are copies, not
// references into the live roster.
type Cohort struct {
	Leaders   []Participant `json:"leaders"`
	Followers []Participant `json:"followers"`
}

// Size returns the number of participants across both roles.
func (c *Cohort) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Leaders) + len(c.Followers)
}

// IDs returns every participant id in the cohort.
func (c *Cohort) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, c.Size())
	for _, p := range c.Leaders {
		out = append(out, p.ID)
	}
	for _, p := range c.Followers {
		out = append(out, p.ID)
	}
	return out
}

// Contains reports whether participantID is part of the cohort.
func (c *Cohort) Contains(participantID string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Leaders {
		if p.ID == participantID {
			return true
		}
	}
	for _, p := range c.Followers {
		if p.ID == participantID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the cohort.
func (c *Cohort) Clone() *Cohort {
	if c == nil {
		return nil
	}
	return &Cohort{
		Leaders:   append([]Participant(nil), c.Leaders...),
		Followers: append([]Participant(nil), c.Followers...),
	}
}

// Podium holds the ranked winners of one role. Places stay nil when fewer
// finalists exist.
type Podium struct {
	First  *Participant `json:"first"`
	Second *Participant `json:"second"`
	Third  *Participant `json:"third"`
}

// Winners holds a podium per role.
type Winners struct {
	Leader   Podium `json:"leader"`
	Follower Podium `json:"follower"`
}

// Snapshot is an immutable competition state. The snapshot with the highest
// version is the current state.
type Snapshot struct {
	ID            string    `json:"id"`
	Version       int64     `json:"version"`
	Phase         Phase     `json:"phase"`
	Category      string    `json:"category"`
	ActiveHeatID  *string   `json:"activeHeatId"`
	Semifinalists *Cohort   `json:"semifinalists"`
	Finalists     *Cohort   `json:"finalists"`
	Winners       *Winners  `json:"winners"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Next derives the successor payload of s. Identity fields (ID, Version,
// CreatedAt) are left for the writer to assign.
func (s Snapshot) Next() Snapshot {
	next := Snapshot{
		Phase:         s.Phase,
		Category:      s.Category,
		Semifinalists: s.Semifinalists.Clone(),
		Finalists:     s.Finalists.Clone(),
	}
	if s.ActiveHeatID != nil {
		id := *s.ActiveHeatID
		next.ActiveHeatID = &id
	}
	if s.Winners != nil {
		w := Winners{Leader: s.Winners.Leader.clone(), Follower: s.Winners.Follower.clone()}
		next.Winners = &w
	}
	return next
}

// Clone returns a deep copy of s including its identity fields.
func (s Snapshot) Clone() Snapshot {
	c := s.Next()
	c.ID, c.Version, c.CreatedAt = s.ID, s.Version, s.CreatedAt
	return c
}

func (p Podium) clone() Podium {
	cp := func(x *Participant) *Participant {
		if x == nil {
			return nil
		}
		v := *x
		return &v
	}
	return Podium{First: cp(p.First), Second: cp(p.Second), Third: cp(p.Third)}
}

// SnapshotEvent announces a committed snapshot to feed subscribers.
type SnapshotEvent struct {
	Action   string   `json:"action"` // e.g. "generate_heats"
	Snapshot Snapshot `json:"snapshot"`
}
