// Package settings holds the workspace preferences. They live in memory and
// reset with the fixtures.
package settings

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"siftin-engine/internal/domain"
)

type DedupeRule string

const (
	DedupeEmail       DedupeRule = "email"
	DedupeNameCompany DedupeRule = "name_company"
	DedupeLinkedInURL DedupeRule = "linkedin_url"
)

type Column struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var Columns = []Column{
	{"full_name", "Full Name"},
	{"headline", "Headline"},
	{"company", "Company"},
	{"company_size", "Company Size"},
	{"industry", "Industry"},
	{"location", "Location"},
	{"match_score", "Match Score"},
	{"email_status", "Email Status"},
	{"connection_level", "Connection Level"},
	{"tags", "Tags"},
}

var ExportMappings = []string{
	"Default CSV",
	"HS Basic",
	"SF Standard",
	"Pipedrive Standard",
	"Custom Mapping 1",
}

type Settings struct {
	WorkspaceName        string     `json:"workspace_name"`
	PrimaryColor         string     `json:"primary_color"`
	AccentColor          string     `json:"accent_color"`
	DedupeRule           DedupeRule `json:"dedupe_rule"`
	DefaultColumns       []string   `json:"default_columns"`
	DefaultExportMapping string     `json:"default_export_mapping"`
}

func Default() Settings {
	return Settings{
		WorkspaceName:        "Default Workspace",
		PrimaryColor:         "#2274A5",
		AccentColor:          "#FADF63",
		DedupeRule:           DedupeEmail,
		DefaultColumns:       []string{"full_name", "headline", "company", "location", "match_score"},
		DefaultExportMapping: "Default CSV",
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NormalizeAndValidate trims text, upper-cases colours and drops unknown or
// repeated columns (reported as warnings).
func NormalizeAndValidate(in Settings) (Settings, []string, error) {
	out := in
	var warnings []string

	out.WorkspaceName = domain.CleanText(out.WorkspaceName)
	if out.WorkspaceName == "" {
		return out, nil, domain.Invalidf("workspace_name is required")
	}
	if len(out.WorkspaceName) > 80 {
		return out, nil, domain.Invalidf("workspace_name must be at most 80 characters")
	}

	for _, c := range []*string{&out.PrimaryColor, &out.AccentColor} {
		*c = strings.ToUpper(strings.TrimSpace(*c))
		if !hexColor.MatchString(*c) {
			return out, nil, domain.Invalidf("colour %q must look like #RRGGBB", *c)
		}
	}

	switch out.DedupeRule {
	case DedupeEmail, DedupeNameCompany, DedupeLinkedInURL:
	default:
		return out, nil, domain.Invalidf("dedupe_rule must be email, name_company or linkedin_url")
	}

	cols := []string{}
	for _, c := range in.DefaultColumns {
		c = strings.TrimSpace(c)
		known := slices.ContainsFunc(Columns, func(col Column) bool { return col.Value == c })
		switch {
		case !known:
			warnings = append(warnings, "unknown column "+c+" dropped")
		case slices.Contains(cols, c):
			warnings = append(warnings, "duplicate column "+c+" dropped")
		default:
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return out, warnings, domain.Invalidf("at least one default column is required")
	}
	out.DefaultColumns = cols

	out.DefaultExportMapping = strings.TrimSpace(out.DefaultExportMapping)
	if !slices.Contains(ExportMappings, out.DefaultExportMapping) {
		return out, warnings, domain.Invalidf("default_export_mapping %q is not a known mapping", out.DefaultExportMapping)
	}
	return out, warnings, nil
}

type Store struct {
	mu  sync.RWMutex
	cur Settings
}

func NewStore() *Store {
	return &Store{cur: Default()}
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.cur
	out.DefaultColumns = slices.Clone(s.cur.DefaultColumns)
	return out
}

// Update replaces the settings when next is valid.
func (s *Store) Update(next Settings) (Settings, []string, error) {
	norm, warnings, err := NormalizeAndValidate(next)
	if err != nil {
		return s.Get(), warnings, err
	}
	s.mu.Lock()
	s.cur = norm
	s.mu.Unlock()
	return s.Get(), warnings, nil
}
