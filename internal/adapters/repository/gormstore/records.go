package gormstore

import (
	"time"

	"github.com/okian/dancefloor/internal/domain/model"
)

type participantRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"not null"`
	Role       string `gorm:"size:16;not null"`
	Number     int    `gorm:"index"`
	PictureRef string
}

func (participantRecord) TableName() string { return "participants" }

type judgeRecord struct {
	ID   string `gorm:"primaryKey;size:64"`
	Name string `gorm:"not null"`
	Role string `gorm:"size:16;not null"`
}

func (judgeRecord) TableName() string { return "judges" }

// scoreRecord carries a unique index on the score key so an upsert replaces
// the judge's previous entry.
type scoreRecord struct {
	ID            string    `gorm:"primaryKey;size:36"`
	JudgeID       string    `gorm:"size:64;not null;uniqueIndex:idx_score_key,priority:1"`
	ParticipantID string    `gorm:"size:64;not null;uniqueIndex:idx_score_key,priority:2;index"`
	Phase         string    `gorm:"size:16;not null;uniqueIndex:idx_score_key,priority:3;index"`
	HeatID        string    `gorm:"size:64;not null;default:'';uniqueIndex:idx_score_key,priority:4"`
	Value         int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (scoreRecord) TableName() string { return "scores" }

type heatRecord struct {
	ID            string               `gorm:"primaryKey;size:64"`
	Number        int                  `gorm:"not null"`
	Presentations []model.Presentation `gorm:"serializer:json"`
	Members       []heatMemberRecord   `gorm:"foreignKey:HeatID;constraint:OnDelete:CASCADE"`
}

func (heatRecord) TableName() string { return "heats" }

type heatMemberRecord struct {
	HeatID        string `gorm:"primaryKey;size:64"`
	ParticipantID string `gorm:"primaryKey;size:64"`
	Role          string `gorm:"size:16;not null"`
	Position      int    `gorm:"not null"`
}

func (heatMemberRecord) TableName() string { return "heat_members" }

// snapshotRecord keeps the cohort and winner payloads as JSON columns. The
// version is a database sequence, so it keeps growing after deletes.
type snapshotRecord struct {
	Version       int64          `gorm:"primaryKey;autoIncrement"`
	ID            string         `gorm:"size:36;uniqueIndex;not null"`
	Phase         string         `gorm:"size:16;not null"`
	Category      string         `gorm:"not null;default:''"`
	ActiveHeatID  *string        `gorm:"size:64"`
	Semifinalists *model.Cohort  `gorm:"serializer:json"`
	Finalists     *model.Cohort  `gorm:"serializer:json"`
	Winners       *model.Winners `gorm:"serializer:json"`
	CreatedAt     time.Time      `gorm:"not null"`
}

func (snapshotRecord) TableName() string { return "snapshots" }

func toParticipant(r participantRecord) model.Participant {
	return model.Participant{ID: r.ID, Name: r.Name, Role: model.Role(r.Role), Number: r.Number, PictureRef: r.PictureRef}
}

func fromParticipant(p model.Participant) participantRecord {
	return participantRecord{ID: p.ID, Name: p.Name, Role: string(p.Role), Number: p.Number, PictureRef: p.PictureRef}
}

func toScore(r scoreRecord) model.Score {
	return model.Score{
		ID: r.ID, JudgeID: r.JudgeID, ParticipantID: r.ParticipantID, Value: r.Value,
		Phase: model.Phase(r.Phase), HeatID: r.HeatID, CreatedAt: r.CreatedAt,
	}
}

func toHeat(r heatRecord) model.Heat {
	h := model.Heat{ID: r.ID, Number: r.Number, Presentations: r.Presentations}
	for _, m := range r.Members {
		if model.Role(m.Role) == model.RoleLeader {
			h.Leaders = append(h.Leaders, m.ParticipantID)
		} else {
			h.Followers = append(h.Followers, m.ParticipantID)
		}
	}
	return h
}

func fromHeat(h model.Heat) heatRecord {
	r := heatRecord{ID: h.ID, Number: h.Number, Presentations: h.Presentations}
	for i, id := range h.Leaders {
		r.Members = append(r.Members, heatMemberRecord{HeatID: h.ID, ParticipantID: id, Role: string(model.RoleLeader), Position: i})
	}
	for i, id := range h.Followers {
		r.Members = append(r.Members, heatMemberRecord{HeatID: h.ID, ParticipantID: id, Role: string(model.RoleFollower), Position: i})
	}
	return r
}

func toSnapshot(r snapshotRecord) model.Snapshot {
	return model.Snapshot{
		ID: r.ID, Version: r.Version, Phase: model.Phase(r.Phase), Category: r.Category,
		ActiveHeatID: r.ActiveHeatID, Semifinalists: r.Semifinalists, Finalists: r.Finalists,
		Winners: r.Winners, CreatedAt: r.CreatedAt,
	}
}

func fromSnapshot(s model.Snapshot) snapshotRecord {
	return snapshotRecord{
		ID: s.ID, Phase: string(s.Phase), Category: s.Category,
		ActiveHeatID: s.ActiveHeatID, Semifinalists: s.Semifinalists, Finalists: s.Finalists,
		Winners: s.Winners, CreatedAt: s.CreatedAt,
	}
}
