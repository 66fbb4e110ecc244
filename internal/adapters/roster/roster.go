// Package roster reads participant and judge rosters from YAML or JSON.
package roster

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/okian/dancefloor/internal/domain/model"
)

// ParticipantEntry is a participant as written in a roster file.
type ParticipantEntry struct {
	ID         string `yaml:"id" json:"id" validate:"required"`
	Name       string `yaml:"name" json:"name" validate:"required"`
	Role       string `yaml:"role" json:"role" validate:"required"`
	Number     int    `yaml:"number" json:"number" validate:"gte=1"`
	PictureRef string `yaml:"picture_ref,omitempty" json:"pictureRef,omitempty"`
}

// JudgeEntry is a judge as written in a roster file.
type JudgeEntry struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Name string `yaml:"name" json:"name"`
	Role string `yaml:"role" json:"role" validate:"required"`
}

// File is the document layout of a roster.
type File struct {
	Participants []ParticipantEntry `yaml:"participants" json:"participants" validate:"dive"`
	Judges       []JudgeEntry       `yaml:"judges" json:"judges" validate:"dive"`
}

// Roster is a parsed, normalized roster.
type Roster struct {
	Participants []model.Participant
	Judges       []model.Judge
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a YAML roster from path.
func Load(path string) (Roster, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return Roster{}, fmt.Errorf("roster.load: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a YAML roster. JSON documents are accepted as well since
// JSON is valid YAML.
func Decode(r io.Reader) (Roster, error) {
	const op = "roster.decode"
	data, err := io.ReadAll(r)
	if err != nil {
		return Roster{}, fmt.Errorf("%s: %w", op, err)
	}
	var doc File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return Roster{}, model.NewKindf(op, model.ErrValidation, "malformed roster: %v", err)
	}
	return doc.Normalize()
}

// Normalize validates the entries, parses roles and checks that ids and
// participant numbers are unique.
func (f File) Normalize() (Roster, error) {
	const op = "roster.normalize"
	if err := validate.Struct(f); err != nil {
		return Roster{}, model.NewKindf(op, model.ErrValidation, "invalid roster: %v", err)
	}

	var out Roster
	ids := map[string]struct{}{}
	numbers := map[int]string{}
	for _, e := range f.Participants {
		role, err := model.ParseRole(e.Role)
		if err != nil {
			return Roster{}, model.NewKindf(op, model.ErrValidation, "participant %s: %v", e.ID, err)
		}
		if _, dup := ids[e.ID]; dup {
			return Roster{}, model.NewKindf(op, model.ErrValidation, "participant %s listed twice", e.ID)
		}
		if other, dup := numbers[e.Number]; dup {
			return Roster{}, model.NewKindf(op, model.ErrValidation, "number %d used by %s and %s", e.Number, other, e.ID)
		}
		ids[e.ID] = struct{}{}
		numbers[e.Number] = e.ID
		out.Participants = append(out.Participants, model.Participant{
			ID: e.ID, Name: e.Name, Role: role, Number: e.Number, PictureRef: e.PictureRef,
		})
	}

	judges := map[string]struct{}{}
	for _, e := range f.Judges {
		role, err := model.ParseRole(e.Role)
		if err != nil {
			return Roster{}, model.NewKindf(op, model.ErrValidation, "judge %s: %v", e.ID, err)
		}
		if _, dup := judges[e.ID]; dup {
			return Roster{}, model.NewKindf(op, model.ErrValidation, "judge %s listed twice", e.ID)
		}
		judges[e.ID] = struct{}{}
		out.Judges = append(out.Judges, model.Judge{ID: e.ID, Name: e.Name, Role: role})
	}
	return out, nil
}
