// Package pipeline runs the KPI generation end to end.
//
// A run is a fixed sequence of stages sharing one State:
//
//	load       read team-match stats, match metadata and season stats
//	indices    GEI, GCI, PGC and GPI per team-match row
//	aggregate  team averages and the league average row
//	rankings   one ranking table per match-level KPI
//	setpiece   set-piece and set-piece efficiency tables
//	goalkpis   GPI ranking merged with set-piece efficiency, plus TopValues
//	export     every table published in one atomic batch
//
// The first failing stage stops the run. Run never returns an error: the
// outcome is a Result with Success, a human-readable Reason and the warnings
// collected from recoverable problems (sentinel substitutions, degenerate
// ranges, unmatched teams). Since export is the last stage, a failed run
// leaves the previously published tables untouched.
package pipeline
