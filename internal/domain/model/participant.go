// Package model contains domain models passed between layers.
package model

import (
	"strings"
)

// Role is the partner-dance role a participant competes in and a judge scores.
type Role string

// Supported roles. Leaders and followers are ranked independently.
const (
	RoleLeader   Role = "LEADER"
	RoleFollower Role = "FOLLOWER"
)

// Roles lists every role in presentation order.
var Roles = []Role{RoleLeader, RoleFollower}

// ParseRole normalizes a role string from an external source ("leader",
// " Follower ", ...) into a Role.
func ParseRole(s string) (Role, error) {
	const op = "model.parse_role"
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleLeader:
		return RoleLeader, nil
	case RoleFollower:
		return RoleFollower, nil
	default:
		return "", NewKind(op, ErrValidation, "unknown role "+strings.TrimSpace(s))
	}
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return r == RoleLeader || r == RoleFollower
}

// Participant is a registered dancer. Owned by the participant registry.
type Participant struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Role       Role   `json:"role" yaml:"role"`
	Number     int    `json:"number" yaml:"number"`                               // bib number, unique across the roster
	PictureRef string `json:"pictureRef,omitempty" yaml:"picture_ref,omitempty"` // opaque reference into the upload store
}

// Judge scores participants of a single role.
type Judge struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Role Role   `json:"role" yaml:"role"`
}

// CanScore reports whether the judge is authorized to score p.
func (j Judge) CanScore(p Participant) bool {
	return j.Role == p.Role
}

// SplitByRole partitions participants into leaders and followers, keeping
// the input order within each role.
func SplitByRole(ps []Participant) (leaders, followers []Participant) {
	for _, p := range ps {
		switch p.Role {
		case RoleLeader:
			leaders = append(leaders, p)
		case RoleFollower:
			followers = append(followers, p)
		}
	}
	return leaders, followers
}
