package query

import (
	"cmp"
	"slices"
	"strings"

	"siftin-engine/internal/domain"
)

type SortMode string

const (
	SortMatchScoreDesc SortMode = "match_score_desc"
	SortMatchScoreAsc  SortMode = "match_score_asc"
	SortCompanySize    SortMode = "company_size"
	SortTitleAZ        SortMode = "title_az"
	SortRecentlyAdded  SortMode = "recently_added"
)

const DefaultSort = SortMatchScoreDesc

var SortModes = []SortMode{SortMatchScoreDesc, SortMatchScoreAsc, SortCompanySize, SortTitleAZ, SortRecentlyAdded}

// ParseSortMode maps "" to DefaultSort and rejects anything unknown.
func ParseSortMode(s string) (SortMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort, nil
	}
	m := SortMode(s)
	if !slices.Contains(SortModes, m) {
		return "", domain.Invalidf("unknown sort %q", s)
	}
	return m, nil
}

// Comparator returns the ordering for mode. Company size compares the bucket
// labels as plain strings, so "11–50" sorts before "5,001+".
func Comparator(mode SortMode) func(a, b domain.Lead) int {
	switch mode {
	case SortMatchScoreAsc:
		return func(a, b domain.Lead) int { return cmp.Compare(a.MatchScore, b.MatchScore) }
	case SortCompanySize:
		return func(a, b domain.Lead) int { return strings.Compare(a.CompanySize, b.CompanySize) }
	case SortTitleAZ:
		return func(a, b domain.Lead) int { return strings.Compare(a.Headline, b.Headline) }
	case SortRecentlyAdded:
		return func(a, b domain.Lead) int { return cmp.Compare(b.ID, a.ID) }
	case SortMatchScoreDesc:
		return func(a, b domain.Lead) int { return cmp.Compare(b.MatchScore, a.MatchScore) }
	default:
		return func(a, b domain.Lead) int { return 0 }
	}
}

// Sort returns a stably sorted copy; equal keys keep their input order.
func Sort(leads []domain.Lead, mode SortMode) []domain.Lead {
	out := slices.Clone(leads)
	slices.SortStableFunc(out, Comparator(mode))
	return out
}
