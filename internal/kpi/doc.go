// Package kpi implements the Goal KPI computation: the per-match composite
// indices, their min-max normalization, per-team aggregation, rankings, the
// set-piece indices and the merged GoalKPIs tables.
//
// Every function in this package is a pure transform over in-memory rows.
// Reading inputs lives in package ingest and writing tables in package exporter;
// package pipeline sequences the steps.
//
// # Indices
//
// Per team-match row the Calculator derives three raw indices, each a weighted
// sum of raw statistics divided by a normalizing denominator:
//
//	GEI  Goal Envolvement Index        denominator minutes × 0.35
//	GCI  Goal Conversion Index         denominator np_shots × 0.45
//	PGC  Possession GoalChance Index   denominator possession × 0.2
//
// A raw index that is undefined (zero denominator, NaN input, overflow) becomes
// the sentinel 0.01. The three are then rescaled into [0.5, 9.5] over all match
// rows and blended into the Goal Performance Index, capped at 9.75.
//
// # Normalization
//
// Normalize maps the minimum to newMin and the maximum to newMax. A constant
// column has no range; every element then receives the midpoint of the target
// interval.
package kpi
