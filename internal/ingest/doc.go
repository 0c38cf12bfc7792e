// Package ingest reads the raw spreadsheets feeding the KPI pipeline.
//
// Three tables are read, each from .xlsx (via excelize) or .csv:
//
//	team match stats   one row per team per match (columns may carry a team_match_ prefix)
//	match metadata     date, competition, season, week, stage and home/away teams per match
//	team season stats  per-game season aggregates (columns may carry a team_season_ prefix)
//
// Each table is bound to a typed record (TeamMatch, Match, SeasonStats) through
// `col` struct tags. The binding is validated against the header before any row
// is decoded, so a table missing columns fails with one MissingInput error
// naming all of them. Empty numeric cells decode to NaN and are left for the
// index calculator to treat as undefined.
package ingest
