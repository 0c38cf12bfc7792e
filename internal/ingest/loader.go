package ingest

import (
	"context"
	"log/slog"
	"sort"
)

// JoinReport lists the irregularities found while joining team-match rows to match metadata.
type JoinReport struct {
	// MissingMetadata holds match ids present in the statistics but not in the metadata.
	MissingMetadata []string `json:"missing_metadata,omitempty"`
	// DuplicateMetadata holds match ids listed more than once in the metadata; the first row wins.
	DuplicateMetadata []string `json:"duplicate_metadata,omitempty"`
	// IncompleteMatches holds match ids that do not have exactly two team rows.
	IncompleteMatches []string `json:"incomplete_matches,omitempty"`
}

// Clean reports whether the join found nothing to warn about
func (r JoinReport) Clean() bool {
	return len(r.MissingMetadata) == 0 && len(r.DuplicateMetadata) == 0 && len(r.IncompleteMatches) == 0
}

// Loader reads and validates the raw input tables
type Loader struct {
	sheet  string
	logger *slog.Logger
}

// NewLoader creates a loader. sheet selects the worksheet in workbook inputs; empty means the first.
func NewLoader(sheet string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{sheet: sheet, logger: logger}
}

// LoadTeamMatches reads the team-match statistics and match metadata and
// left-joins them on match id.
func (l *Loader) LoadTeamMatches(ctx context.Context, statsPath, matchesPath string) ([]TeamMatch, JoinReport, error) {
	statsSheet, err := ReadSheet(statsPath, l.sheet)
	if err != nil {
		return nil, JoinReport{}, err
	}
	stats, err := decode[TeamMatch](teamMatchSchema, statsSheet)
	if err != nil {
		return nil, JoinReport{}, err
	}

	matchesSheet, err := ReadSheet(matchesPath, l.sheet)
	if err != nil {
		return nil, JoinReport{}, err
	}
	matches, err := decode[Match](matchSchema, matchesSheet)
	if err != nil {
		return nil, JoinReport{}, err
	}

	joined, report := Join(stats, matches)

	l.logger.InfoContext(ctx, "loaded team match statistics",
		slog.String("stats_file", statsPath),
		slog.String("matches_file", matchesPath),
		slog.Int("team_match_rows", len(joined)),
		slog.Int("matches", len(matches)))

	if !report.Clean() {
		l.logger.WarnContext(ctx, "match join irregularities",
			slog.Any("missing_metadata", report.MissingMetadata),
			slog.Any("duplicate_metadata", report.DuplicateMetadata),
			slog.Any("incomplete_matches", report.IncompleteMatches))
	}

	return joined, report, nil
}

// LoadSeasonStats reads the per-team season statistics
func (l *Loader) LoadSeasonStats(ctx context.Context, path string) ([]SeasonStats, error) {
	sheet, err := ReadSheet(path, l.sheet)
	if err != nil {
		return nil, err
	}
	rows, err := decode[SeasonStats](seasonStatsSchema, sheet)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "loaded team season statistics",
		slog.String("file", path),
		slog.Int("teams", len(rows)))

	return rows, nil
}

// Join attaches match metadata to every team-match row (many-to-one on match id).
// Rows without metadata are kept with a zero Match.
func Join(stats []TeamMatch, matches []Match) ([]TeamMatch, JoinReport) {
	var report JoinReport

	byID := make(map[string]Match, len(matches))
	dup := make(map[string]bool)
	for _, m := range matches {
		if _, exists := byID[m.MatchID]; exists {
			dup[m.MatchID] = true
			continue
		}
		byID[m.MatchID] = m
	}

	out := make([]TeamMatch, len(stats))
	missing := make(map[string]bool)
	perMatch := make(map[string]int)
	for i, row := range stats {
		if m, ok := byID[row.MatchID]; ok {
			row.Match = m
		} else {
			missing[row.MatchID] = true
		}
		perMatch[row.MatchID]++
		out[i] = row
	}

	report.MissingMetadata = sortedKeys(missing)
	report.DuplicateMetadata = sortedKeys(dup)
	incomplete := make(map[string]bool)
	for id, n := range perMatch {
		if n != 2 {
			incomplete[id] = true
		}
	}
	report.IncompleteMatches = sortedKeys(incomplete)

	return out, report
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
