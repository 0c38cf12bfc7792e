package kpi

import (
	"fmt"
	"math"
	"strings"
)

const (
	// NormMin and NormMax bound every rescaled index
	NormMin = 0.5
	NormMax = 9.5

	// Sentinel replaces a raw index that is undefined
	Sentinel = 0.01

	// TopK is the number of leading values that define the TopValues band
	TopK = 7

	// AverageMatchID marks aggregate rows in the final table
	AverageMatchID = "AVG"
	// AllTeamsName names the league-wide average row
	AllTeamsName = "ALL_TEAMS_AVG"

	TopValuesMinLabel = "TopValues (min)"
	TopValuesMaxLabel = "TopValues (max)"
)

// Output column headers shared by the persisted tables
const (
	ColGEINorm = "Goal Envolvement Index (norm)"
	ColGCINorm = "Goal Conversion Index (norm)"
	ColPGCNorm = "Possession GoalChance Index (norm)"
	ColGPI     = "Goal Performance Index"
	ColGEI     = "Goal Envolvement Index"
	ColGCI     = "Goal Conversion Index"
	ColPGC     = "Possession GoalChance Index"
	ColRank    = "Rank (avg)"

	ColCornerEfficiency   = "corner Efficiency"
	ColFreeKickEfficiency = "freekick Efficiency"
	ColDirectFKEfficiency = "directfk Efficiency"
	ColThrowInEfficiency  = "throw in Efficiency"
	ColSetPieceEfficacy   = "SetPiece Eficcacy Index"
	ColGoalSetPiece       = "GoalSetPiece Performance Index"
)

// FinalRow is one row of the final table: a team's indices in one match, a
// team aggregate (MatchID "AVG") or the league average (TeamName "ALL_TEAMS_AVG").
// GEI, GCI and PGC hold the normalized values.
type FinalRow struct {
	MatchID          string
	TeamName         string
	TeamID           int64
	AccountID        int64
	MatchDate        string
	Competition      string
	Season           string
	MatchWeek        int64
	CompetitionStage string
	HomeTeam         string
	AwayTeam         string

	NpXG    float64
	NpShots float64
	OBVShot float64
	XGChain float64
	Goals   float64

	GEI float64
	GCI float64
	PGC float64
	GPI float64

	MatchScore string
}

// IsAggregate reports whether the row is a team or league average
func (r FinalRow) IsAggregate() bool { return r.MatchID == AverageMatchID }

// IsLeagueAverage reports whether the row is the ALL_TEAMS_AVG row
func (r FinalRow) IsLeagueAverage() bool {
	return r.IsAggregate() && r.TeamName == AllTeamsName
}

// Value returns the match-level KPI k, or NaN for set-piece KPIs.
func (r FinalRow) Value(k KPI) float64 {
	switch k {
	case GPI:
		return r.GPI
	case GEI:
		return r.GEI
	case GCI:
		return r.GCI
	case PGC:
		return r.PGC
	}
	return math.NaN()
}

// RankingRow is one team in a per-KPI ranking table
type RankingRow struct {
	Rank      int
	TeamName  string
	TeamID    int64
	MatchWeek int64
	GPI       float64
	GEI       float64
	GCI       float64
	PGC       float64
}

// SetPieceRow holds a team's normalized set-piece sub-indices
type SetPieceRow struct {
	TeamName       string
	TeamID         int64
	Corner         float64
	FreeKick       float64
	DirectFreeKick float64
	ThrowIn        float64
	Efficacy       float64
}

// SetPieceEfficiencyRow is a SetPieceRow joined with the GoalSetPiece index
type SetPieceEfficiencyRow struct {
	SetPieceRow
	GoalSetPiece float64
}

// GoalKPIRow is one team (or TopValues band row) of the GoalKPIs tables
type GoalKPIRow struct {
	Rank      int
	TeamName  string
	TeamID    int64
	MatchWeek int64

	GPI float64
	GEI float64
	GCI float64
	PGC float64

	Corner         float64
	FreeKick       float64
	DirectFreeKick float64
	ThrowIn        float64
	SetPiece       float64
	GoalSetPiece   float64
}

// IsTopValues reports whether the row is one of the two TopValues band rows
func (r GoalKPIRow) IsTopValues() bool {
	return r.TeamName == TopValuesMinLabel || r.TeamName == TopValuesMaxLabel
}

// Value returns the row's value for k
func (r GoalKPIRow) Value(k KPI) float64 {
	switch k {
	case GPI:
		return r.GPI
	case GEI:
		return r.GEI
	case GCI:
		return r.GCI
	case PGC:
		return r.PGC
	case CornerEfficiency:
		return r.Corner
	case FreeKickEfficiency:
		return r.FreeKick
	case DirectFreeKickEfficiency:
		return r.DirectFreeKick
	case ThrowInEfficiency:
		return r.ThrowIn
	case SetPieceEfficacy:
		return r.SetPiece
	case GoalSetPiecePerformance:
		return r.GoalSetPiece
	}
	return math.NaN()
}

// SetValue stores v as the row's value for k
func (r *GoalKPIRow) SetValue(k KPI, v float64) {
	switch k {
	case GPI:
		r.GPI = v
	case GEI:
		r.GEI = v
	case GCI:
		r.GCI = v
	case PGC:
		r.PGC = v
	case CornerEfficiency:
		r.Corner = v
	case FreeKickEfficiency:
		r.FreeKick = v
	case DirectFreeKickEfficiency:
		r.DirectFreeKick = v
	case ThrowInEfficiency:
		r.ThrowIn = v
	case SetPieceEfficacy:
		r.SetPiece = v
	case GoalSetPiecePerformance:
		r.GoalSetPiece = v
	}
}

// KPI identifies one of the team-level indices
type KPI int

const (
	GPI KPI = iota
	GEI
	GCI
	PGC
	CornerEfficiency
	FreeKickEfficiency
	DirectFreeKickEfficiency
	ThrowInEfficiency
	SetPieceEfficacy
	GoalSetPiecePerformance
)

var kpiInfo = [...]struct {
	key    string
	column string
}{
	GPI:                      {"gpi", ColGPI},
	GEI:                      {"gei", ColGEI},
	GCI:                      {"gci", ColGCI},
	PGC:                      {"pgc", ColPGC},
	CornerEfficiency:         {"corner", ColCornerEfficiency},
	FreeKickEfficiency:       {"freekick", ColFreeKickEfficiency},
	DirectFreeKickEfficiency: {"directfk", ColDirectFKEfficiency},
	ThrowInEfficiency:        {"throwin", ColThrowInEfficiency},
	SetPieceEfficacy:         {"setpiece", ColSetPieceEfficacy},
	GoalSetPiecePerformance:  {"goalsetpiece", ColGoalSetPiece},
}

// AllKPIs lists the KPIs in table column order
func AllKPIs() []KPI {
	out := make([]KPI, len(kpiInfo))
	for i := range kpiInfo {
		out[i] = KPI(i)
	}
	return out
}

// MatchKPIs lists the KPIs available per match
func MatchKPIs() []KPI { return []KPI{GPI, GEI, GCI, PGC} }

func (k KPI) valid() bool { return k >= 0 && int(k) < len(kpiInfo) }

// Key is the short lowercase identifier used in URLs
func (k KPI) Key() string {
	if !k.valid() {
		return "unknown"
	}
	return kpiInfo[k].key
}

// Column is the table header for k
func (k KPI) Column() string {
	if !k.valid() {
		return "unknown"
	}
	return kpiInfo[k].column
}

func (k KPI) String() string { return k.Column() }

// RankingSuffix is the file suffix of k's ranking table
func (k KPI) RankingSuffix() string {
	if k == PGC {
		return "PGI"
	}
	return strings.ToUpper(k.Key())
}

// ParseKPI accepts a key ("gpi"), a ranking suffix ("PGI") or a column header.
func ParseKPI(s string) (KPI, error) {
	s = strings.TrimSpace(s)
	for _, k := range AllKPIs() {
		if strings.EqualFold(s, k.Key()) || strings.EqualFold(s, k.Column()) {
			return k, nil
		}
	}
	if strings.EqualFold(s, "pgi") {
		return PGC, nil
	}
	return 0, fmt.Errorf("unknown KPI %q", s)
}
