// Package domain holds the score submission enumerations and identity types
// shared across the engine's modules.
package domain

import "fmt"

// SubmissionStatus is the lifecycle state of a submitted score.
// FAILED and SUBMITTED never appear on leaderboards; BEST and APPROVED are
// the two "counts for leaderboard" states, and at most one score per
// (player, map) may hold either at any time.
type SubmissionStatus int8

const (
	StatusFailed SubmissionStatus = iota
	StatusSubmitted
	StatusBest
	StatusApproved
)

// CountsForLeaderboard reports whether the status is a current-best state.
func (s SubmissionStatus) CountsForLeaderboard() bool {
	return s == StatusBest || s == StatusApproved
}

func (s SubmissionStatus) String() string {
	switch s {
	case StatusFailed:
		return "FAILED"
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusBest:
		return "BEST"
	case StatusApproved:
		return "APPROVED"
	default:
		return fmt.Sprintf("SubmissionStatus(%d)", int8(s))
	}
}

// Grade is the letter grade the client reports for a play.
type Grade string

const (
	GradeX  Grade = "X"  // SS
	GradeXH Grade = "XH" // SS with Hidden/FlashLight
	GradeS  Grade = "S"
	GradeSH Grade = "SH"
	GradeA  Grade = "A"
	GradeB  Grade = "B"
	GradeC  Grade = "C"
	GradeD  Grade = "D"
)

var knownGrades = map[Grade]bool{
	GradeX: true, GradeXH: true, GradeS: true, GradeSH: true,
	GradeA: true, GradeB: true, GradeC: true, GradeD: true,
}

// ParseGrade validates a grade token from the submission payload.
func ParseGrade(token string) (Grade, bool) {
	g := Grade(token)
	return g, knownGrades[g]
}

// Metric selects which score field orders leaderboards and ranks. The active
// metric is a deployment-time choice threaded into the resolver and the
// aggregator at construction.
type Metric string

const (
	MetricPerformance Metric = "pp"
	MetricScore       Metric = "score"
)

// Valid reports whether m names a known metric.
func (m Metric) Valid() bool {
	return m == MetricPerformance || m == MetricScore
}

// GameMode distinguishes score sets; droid has a single standard mode today
// but the storage keys carry it so a future mode does not need a migration.
type GameMode int8

const ModeStandard GameMode = 0

// Player identifies the authenticated submitter of a score.
type Player struct {
	ID   int64
	Name string
}
