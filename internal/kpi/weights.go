package kpi

import (
	"math"

	"github.com/lucbra21/audaxIndex/internal/ingest"
)

// Stat reads one raw statistic from a team-match row
type Stat struct {
	Column string
	Get    func(ingest.TeamMatch) float64
}

// Group is a weighted set of statistics; it contributes Weight × mean(Stats).
type Group struct {
	Weight float64
	Stats  []Stat
}

// Formula is a raw composite index:
//
//	Scale × Σ group.Weight × mean(group) / (Denominator × DenominatorFactor)
type Formula struct {
	Name              string
	Groups            []Group
	Scale             float64
	Denominator       Stat
	DenominatorFactor float64
}

// WeightSum is the total of the group weights
func (f Formula) WeightSum() float64 {
	var sum float64
	for _, g := range f.Groups {
		sum += g.Weight
	}
	return sum
}

// Columns lists every raw column the formula reads, denominator last
func (f Formula) Columns() []string {
	var cols []string
	for _, g := range f.Groups {
		for _, s := range g.Stats {
			cols = append(cols, s.Column)
		}
	}
	return append(cols, f.Denominator.Column)
}

// Raw evaluates the formula for one row. The result is NaN or ±Inf when the
// denominator is zero or an input is missing.
func (f Formula) Raw(row ingest.TeamMatch) float64 {
	var numerator float64
	for _, g := range f.Groups {
		var sum float64
		for _, s := range g.Stats {
			sum += s.Get(row)
		}
		numerator += g.Weight * sum / float64(len(g.Stats))
	}
	denominator := f.Denominator.Get(row) * f.DenominatorFactor
	if denominator == 0 {
		return math.NaN()
	}
	return f.Scale * numerator / denominator
}

func newStat(column string, get func(ingest.TeamMatch) float64) Stat {
	return Stat{Column: column, Get: get}
}

var (
	statXA               = newStat("xa", func(r ingest.TeamMatch) float64 { return r.XA })
	statKeyPasses        = newStat("key_passes", func(r ingest.TeamMatch) float64 { return r.KeyPasses })
	statAssists          = newStat("assists", func(r ingest.TeamMatch) float64 { return r.Assists })
	statXGChain          = newStat("xgchain", func(r ingest.TeamMatch) float64 { return r.XGChain })
	statTouchesInsideBox = newStat("touches_inside_box", func(r ingest.TeamMatch) float64 { return r.TouchesInsideBox })
)

// GEIFormula is the Goal Envolvement Index
var GEIFormula = Formula{
	Name: "GEI",
	Groups: []Group{
		{Weight: 0.30, Stats: []Stat{statXA, statKeyPasses, statAssists}},
		{Weight: 0.20, Stats: []Stat{
			newStat("through_balls", func(r ingest.TeamMatch) float64 { return r.ThroughBalls }),
			newStat("passes_into_box", func(r ingest.TeamMatch) float64 { return r.PassesIntoBox }),
			newStat("passes_inside_box", func(r ingest.TeamMatch) float64 { return r.PassesInsideBox }),
			newStat("crosses_into_box", func(r ingest.TeamMatch) float64 { return r.CrossesIntoBox }),
		}},
		{Weight: 0.05, Stats: []Stat{
			newStat("box_cross_ratio", func(r ingest.TeamMatch) float64 { return r.BoxCrossRatio }),
		}},
		{Weight: 0.15, Stats: []Stat{
			newStat("sp_xa", func(r ingest.TeamMatch) float64 { return r.SPXA }),
			newStat("deep_progressions", func(r ingest.TeamMatch) float64 { return r.DeepProgressions }),
			statTouchesInsideBox,
		}},
		{Weight: 0.10, Stats: []Stat{
			statXGChain,
			newStat("xgbuildup", func(r ingest.TeamMatch) float64 { return r.XGBuildup }),
		}},
		{Weight: 0.10, Stats: []Stat{
			newStat("xgchain_per_possession", func(r ingest.TeamMatch) float64 { return r.XGChainPerPossession }),
			newStat("xgbuildup_per_possession", func(r ingest.TeamMatch) float64 { return r.XGBuildupPerPossession }),
		}},
		{Weight: 0.05, Stats: []Stat{
			newStat("obv_pass", func(r ingest.TeamMatch) float64 { return r.OBVPass }),
			newStat("obv_dribble_carry", func(r ingest.TeamMatch) float64 { return r.OBVDribbleCarry }),
		}},
		{Weight: 0.05, Stats: []Stat{
			newStat("forward_passes", func(r ingest.TeamMatch) float64 { return r.ForwardPasses }),
		}},
	},
	Scale:             10,
	Denominator:       newStat("minutes", func(r ingest.TeamMatch) float64 { return r.Minutes }),
	DenominatorFactor: 0.35,
}

// GCIFormula is the Goal Conversion Index
var GCIFormula = Formula{
	Name: "GCI",
	Groups: []Group{
		{Weight: 0.30, Stats: []Stat{newStat("goals", func(r ingest.TeamMatch) float64 { return r.Goals })}},
		{Weight: 0.20, Stats: []Stat{newStat("np_xg", func(r ingest.TeamMatch) float64 { return r.NpXG })}},
		{Weight: 0.20, Stats: []Stat{newStat("np_xg_per_shot", func(r ingest.TeamMatch) float64 { return r.NpXGPerShot })}},
		{Weight: 0.10, Stats: []Stat{newStat("np_shots_on_target", func(r ingest.TeamMatch) float64 { return r.NpShotsOnTarget })}},
		{Weight: 0.10, Stats: []Stat{newStat("shot_touch_ratio", func(r ingest.TeamMatch) float64 { return r.ShotTouchRatio })}},
		{Weight: 0.05, Stats: []Stat{newStat("penalties_won", func(r ingest.TeamMatch) float64 { return r.PenaltiesWon })}},
		{Weight: 0.05, Stats: []Stat{newStat("obv_shot", func(r ingest.TeamMatch) float64 { return r.OBVShot })}},
	},
	Scale:             10,
	Denominator:       newStat("np_shots", func(r ingest.TeamMatch) float64 { return r.NpShots }),
	DenominatorFactor: 0.45,
}

// PGCFormula is the Possession GoalChance Index
var PGCFormula = Formula{
	Name: "PGC",
	Groups: []Group{
		{Weight: 0.85, Stats: []Stat{statKeyPasses, statAssists, statXA, statXGChain}},
		{Weight: 0.15, Stats: []Stat{statTouchesInsideBox}},
	},
	Scale:             10,
	Denominator:       newStat("possession", func(r ingest.TeamMatch) float64 { return r.Possession }),
	DenominatorFactor: 0.2,
}

// Blend is the Goal Performance Index: a weighted mean of the normalized
// GEI, GCI and PGC shifted by Offset and capped at Cap.
type Blend struct {
	GEI    float64
	GCI    float64
	PGC    float64
	Offset float64
	Cap    float64
}

// GPIBlend weighs conversion highest
var GPIBlend = Blend{GEI: 3, GCI: 4.5, PGC: 2, Offset: 3, Cap: 9.75}

// Divisor is the sum of the blend weights
func (b Blend) Divisor() float64 { return b.GEI + b.GCI + b.PGC }

// Apply computes the capped GPI from normalized indices
func (b Blend) Apply(gei, gci, pgc float64) float64 {
	gpi := (gei*b.GEI+gci*b.GCI+pgc*b.PGC)/b.Divisor() + b.Offset
	return math.Min(gpi, b.Cap)
}

// RatioWeights weigh the goal, xG and shot ratios of one set-piece type
type RatioWeights struct {
	Goal float64
	XG   float64
	Shot float64
}

// Set-piece sub-index weights
var (
	CornerWeights         = RatioWeights{Goal: 0.15, XG: 0.10, Shot: 0.10}
	FreeKickWeights       = RatioWeights{Goal: 0.15, XG: 0.10, Shot: 0.10}
	DirectFreeKickWeights = RatioWeights{Goal: 0.10, XG: 0.05, Shot: 0.05}
	ThrowInWeights        = RatioWeights{Goal: 0.10, XG: 0.05, Shot: 0.05}
)

// EfficacyWeights combine the four normalized sub-indices
type EfficacyWeights struct {
	Corner         float64
	FreeKick       float64
	DirectFreeKick float64
	ThrowIn        float64
}

// Sum of the weights
func (w EfficacyWeights) Sum() float64 {
	return w.Corner + w.FreeKick + w.DirectFreeKick + w.ThrowIn
}

var DefaultEfficacyWeights = EfficacyWeights{Corner: 0.50, FreeKick: 0.25, DirectFreeKick: 0.15, ThrowIn: 0.10}

// GoalSetPieceWeights combine the four normalized season ratios
type GoalSetPieceWeights struct {
	GoalRatio float64
	XGPerSP   float64
	ShotRatio float64
	Volume    float64
}

// Sum of the weights
func (w GoalSetPieceWeights) Sum() float64 {
	return w.GoalRatio + w.XGPerSP + w.ShotRatio + w.Volume
}

var DefaultGoalSetPieceWeights = GoalSetPieceWeights{GoalRatio: 0.35, XGPerSP: 0.25, ShotRatio: 0.20, Volume: 0.20}
