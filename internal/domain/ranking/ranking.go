// Package ranking aggregates scores into per-role standings.
//
// Ordering: totalScore DESC, averageScore DESC, highScoreCount DESC,
// judgeCount DESC, then the configured tie-breaker.
package ranking

import (
	"sort"

	"github.com/okian/dancefloor/internal/domain/model"
)

// Cut lines between phases.
const (
	SemifinalCut = 8 // per role, HEATS -> SEMIFINAL
	FinalCut     = 5 // per role, SEMIFINAL -> FINAL
	PodiumSize   = 3
)

// Standing is one participant's aggregated result inside a cohort.
type Standing struct {
	Participant    model.Participant `json:"participant"`
	Rank           int               `json:"rank"`
	TotalScore     int               `json:"totalScore"`
	AverageScore   float64           `json:"averageScore"`
	HighScoreCount int               `json:"highScoreCount"`
	JudgeCount     int               `json:"judgeCount"`
	TieBroken      bool              `json:"tieBroken"` // position decided by the tie-breaker
}

// RoleStandings holds independently ranked standings per role.
type RoleStandings struct {
	Leaders   []Standing `json:"leaders"`
	Followers []Standing `json:"followers"`
}

// Clone returns a copy that shares no slices with rs.
func (rs RoleStandings) Clone() RoleStandings {
	return RoleStandings{
		Leaders:   append([]Standing(nil), rs.Leaders...),
		Followers: append([]Standing(nil), rs.Followers...),
	}
}

// TieBroken returns every standing whose position the tie-breaker decided.
func (rs RoleStandings) TieBroken() []Standing {
	var out []Standing
	for _, s := range rs.Leaders {
		if s.TieBroken {
			out = append(out, s)
		}
	}
	for _, s := range rs.Followers {
		if s.TieBroken {
			out = append(out, s)
		}
	}
	return out
}

// Engine ranks cohorts.
type Engine struct {
	tieBreaker TieBreaker
}

// NewEngine creates an engine. The default tie-breaker is ByNumber.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{tieBreaker: ByNumber{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TieBreakerName reports the configured tie-breaker.
func (e *Engine) TieBreakerName() string {
	return e.tieBreaker.Name()
}

type accumulator struct {
	total  int
	high   int
	judges map[string]struct{}
	groups map[string]*group // keyed by heat id ("" outside HEATS)
}

type group struct {
	sum   int
	count int
}

// Aggregate computes the metrics of every cohort member from scores. Scores
// of participants outside the cohort are ignored. The result follows cohort
// order and carries no rank.
func Aggregate(cohort []model.Participant, scores []model.Score) []Standing {
	acc := make(map[string]*accumulator, len(cohort))
	for _, p := range cohort {
		acc[p.ID] = &accumulator{judges: map[string]struct{}{}, groups: map[string]*group{}}
	}
	for _, s := range scores {
		a, ok := acc[s.ParticipantID]
		if !ok {
			continue
		}
		a.total += s.Value
		if s.Value >= model.HighScoreThreshold {
			a.high++
		}
		a.judges[s.JudgeID] = struct{}{}
		g, ok := a.groups[s.HeatID]
		if !ok {
			g = &group{}
			a.groups[s.HeatID] = g
		}
		g.sum += s.Value
		g.count++
	}

	out := make([]Standing, len(cohort))
	for i, p := range cohort {
		a := acc[p.ID]
		out[i] = Standing{
			Participant:    p,
			TotalScore:     a.total,
			AverageScore:   a.average(),
			HighScoreCount: a.high,
			JudgeCount:     len(a.judges),
		}
	}
	return out
}

// average is the running mean of per-heat averages, visiting heats in id
// order so the result does not depend on submission order.
func (a *accumulator) average() float64 {
	keys := make([]string, 0, len(a.groups))
	for k := range a.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	avg := 0.0
	for i, k := range keys {
		g := a.groups[k]
		groupAvg := float64(g.sum) / float64(g.count)
		avg += (groupAvg - avg) / float64(i+1)
	}
	return avg
}

// compareMetrics returns -1 when a ranks before b, 1 when after, and 0 when
// the two are fully tied.
func compareMetrics(a, b Standing) int {
	switch {
	case a.TotalScore != b.TotalScore:
		return cmpDesc(a.TotalScore, b.TotalScore)
	case a.AverageScore != b.AverageScore:
		if a.AverageScore > b.AverageScore {
			return -1
		}
		return 1
	case a.HighScoreCount != b.HighScoreCount:
		return cmpDesc(a.HighScoreCount, b.HighScoreCount)
	case a.JudgeCount != b.JudgeCount:
		return cmpDesc(a.JudgeCount, b.JudgeCount)
	default:
		return 0
	}
}

func cmpDesc(a, b int) int {
	if a > b {
		return -1
	}
	return 1
}

// Rank aggregates and orders a single-role cohort. Ranks start at 1 and are
// unique; fully tied neighbours are flagged TieBroken.
func (e *Engine) Rank(cohort []model.Participant, scores []model.Score) []Standing {
	standings := Aggregate(cohort, scores)
	order := e.tieBreaker.Order(cohort)

	sort.SliceStable(standings, func(i, j int) bool {
		if c := compareMetrics(standings[i], standings[j]); c != 0 {
			return c < 0
		}
		return order[standings[i].Participant.ID] < order[standings[j].Participant.ID]
	})

	for i := range standings {
		standings[i].Rank = i + 1
		if i > 0 && compareMetrics(standings[i-1], standings[i]) == 0 {
			standings[i-1].TieBroken = true
			standings[i].TieBroken = true
		}
	}
	return standings
}

// RankCohort ranks leaders and followers of a cohort independently.
func (e *Engine) RankCohort(cohort model.Cohort, scores []model.Score) RoleStandings {
	return RoleStandings{
		Leaders:   e.Rank(cohort.Leaders, scores),
		Followers: e.Rank(cohort.Followers, scores),
	}
}

// Top returns copies of the first n participants of ranked standings.
func Top(standings []Standing, n int) []model.Participant {
	n = min(n, len(standings))
	out := make([]model.Participant, n)
	for i := 0; i < n; i++ {
		out[i] = standings[i].Participant
	}
	return out
}

// Cut freezes the top n of each role into a new cohort.
func Cut(rs RoleStandings, n int) *model.Cohort {
	return &model.Cohort{
		Leaders:   Top(rs.Leaders, n),
		Followers: Top(rs.Followers, n),
	}
}
