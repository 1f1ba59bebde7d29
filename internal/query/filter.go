// Package query holds the lead filter, sort and pagination pipeline shared by
// the lead library, the run results page and the CLI.
package query

import (
	"slices"
	"strings"

	"siftin-engine/internal/domain"
)

// All disables a single-select filter, same as leaving it empty.
const All = "all"

// Filter is the full filter state of a lead view. Single-select fields come
// from the library page, the plural lists from the results page. Both may be
// set at once; every active field must pass.
type Filter struct {
	Search string `json:"search"`

	Industry        string `json:"industry"`
	CompanySize     string `json:"company_size"`
	Location        string `json:"location"`
	EmailStatus     string `json:"email_status"`
	ConnectionLevel string `json:"connection_level"`

	Industries       []string `json:"industries"`
	CompanySizes     []string `json:"company_sizes"`
	EmailStatuses    []string `json:"email_statuses"`
	ConnectionLevels []string `json:"connection_levels"`

	MinScore int      `json:"min_score"`
	Tags     []string `json:"tags"`
}

func selected(v string) bool {
	return v != "" && !strings.EqualFold(v, All)
}

// Active reports whether any field narrows the result.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Search) != "" ||
		selected(f.Industry) || selected(f.CompanySize) || selected(f.Location) ||
		selected(f.EmailStatus) || selected(f.ConnectionLevel) ||
		len(f.Industries) > 0 || len(f.CompanySizes) > 0 ||
		len(f.EmailStatuses) > 0 || len(f.ConnectionLevels) > 0 ||
		f.MinScore > 0 || len(f.Tags) > 0
}

// Clone copies f so the lists are not shared.
func (f Filter) Clone() Filter {
	f.Industries = slices.Clone(f.Industries)
	f.CompanySizes = slices.Clone(f.CompanySizes)
	f.EmailStatuses = slices.Clone(f.EmailStatuses)
	f.ConnectionLevels = slices.Clone(f.ConnectionLevels)
	f.Tags = slices.Clone(f.Tags)
	return f
}

// Validate checks the bounded fields. Unknown enum values simply match nothing.
func (f Filter) Validate() error {
	if f.MinScore < 0 || f.MinScore > 100 {
		return domain.Invalidf("min_score must be 0..100, got %d", f.MinScore)
	}
	return nil
}

// FilterPatch is a partial filter update. Nil fields keep their value.
type FilterPatch struct {
	Search *string `json:"search,omitempty"`

	Industry        *string `json:"industry,omitempty"`
	CompanySize     *string `json:"company_size,omitempty"`
	Location        *string `json:"location,omitempty"`
	EmailStatus     *string `json:"email_status,omitempty"`
	ConnectionLevel *string `json:"connection_level,omitempty"`

	Industries       *[]string `json:"industries,omitempty"`
	CompanySizes     *[]string `json:"company_sizes,omitempty"`
	EmailStatuses    *[]string `json:"email_statuses,omitempty"`
	ConnectionLevels *[]string `json:"connection_levels,omitempty"`

	MinScore *int      `json:"min_score,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// Empty reports whether p changes nothing.
func (p FilterPatch) Empty() bool {
	return p == FilterPatch{}
}

// Apply returns f with the set fields of p merged in. f is not modified.
func (p FilterPatch) Apply(f Filter) Filter {
	f = f.Clone()
	str := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	list := func(dst *[]string, src *[]string) {
		if src != nil {
			*dst = slices.Clone(*src)
		}
	}
	str(&f.Search, p.Search)
	str(&f.Industry, p.Industry)
	str(&f.CompanySize, p.CompanySize)
	str(&f.Location, p.Location)
	str(&f.EmailStatus, p.EmailStatus)
	str(&f.ConnectionLevel, p.ConnectionLevel)
	list(&f.Industries, p.Industries)
	list(&f.CompanySizes, p.CompanySizes)
	list(&f.EmailStatuses, p.EmailStatuses)
	list(&f.ConnectionLevels, p.ConnectionLevels)
	list(&f.Tags, p.Tags)
	if p.MinScore != nil {
		f.MinScore = *p.MinScore
	}
	return f
}

func contains(field, term string) bool {
	return strings.Contains(strings.ToLower(field), term)
}

// Predicate composes every active filter field into one AND-ed test.
// It never reorders or mutates the lead it is given.
func Predicate(f Filter) func(domain.Lead) bool {
	var tests []func(domain.Lead) bool

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		tests = append(tests, func(l domain.Lead) bool {
			return contains(l.FullName, q) || contains(l.Headline, q) ||
				contains(l.Company, q) || contains(l.Industry, q) || contains(l.Location, q)
		})
	}
	if selected(f.Industry) {
		term := strings.ToLower(strings.TrimSpace(f.Industry))
		tests = append(tests, func(l domain.Lead) bool { return contains(l.Industry, term) })
	}
	if selected(f.CompanySize) {
		want := f.CompanySize
		tests = append(tests, func(l domain.Lead) bool { return l.CompanySize == want })
	}
	if selected(f.Location) {
		term := strings.ToLower(strings.TrimSpace(f.Location))
		tests = append(tests, func(l domain.Lead) bool { return contains(l.Location, term) })
	}
	if selected(f.EmailStatus) {
		want := domain.EmailStatus(f.EmailStatus)
		tests = append(tests, func(l domain.Lead) bool { return l.EmailStatus == want })
	}
	if selected(f.ConnectionLevel) {
		want := domain.ConnectionLevel(f.ConnectionLevel)
		tests = append(tests, func(l domain.Lead) bool { return l.ConnectionLevel == want })
	}
	if len(f.Industries) > 0 {
		set := slices.Clone(f.Industries)
		tests = append(tests, func(l domain.Lead) bool { return slices.Contains(set, l.Industry) })
	}
	if len(f.CompanySizes) > 0 {
		set := slices.Clone(f.CompanySizes)
		tests = append(tests, func(l domain.Lead) bool { return slices.Contains(set, l.CompanySize) })
	}
	if len(f.EmailStatuses) > 0 {
		set := slices.Clone(f.EmailStatuses)
		tests = append(tests, func(l domain.Lead) bool { return slices.Contains(set, string(l.EmailStatus)) })
	}
	if len(f.ConnectionLevels) > 0 {
		set := slices.Clone(f.ConnectionLevels)
		tests = append(tests, func(l domain.Lead) bool { return slices.Contains(set, string(l.ConnectionLevel)) })
	}
	if f.MinScore > 0 {
		threshold := f.MinScore
		tests = append(tests, func(l domain.Lead) bool { return l.MatchScore >= threshold })
	}
	if len(f.Tags) > 0 {
		set := slices.Clone(f.Tags)
		tests = append(tests, func(l domain.Lead) bool {
			return slices.ContainsFunc(set, l.HasTag)
		})
	}

	return func(l domain.Lead) bool {
		for _, t := range tests {
			if !t(l) {
				return false
			}
		}
		return true
	}
}

// Apply returns the leads passing f in their original order.
func Apply(leads []domain.Lead, f Filter) []domain.Lead {
	keep := Predicate(f)
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
