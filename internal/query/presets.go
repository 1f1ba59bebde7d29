package query

import "siftin-engine/internal/domain"

// Preset is a named filter shortcut. Reset presets clear the filter before
// the patch is merged; the others merge into the current state.
type Preset struct {
	Name  string      `json:"name"`
	Label string      `json:"label"`
	Reset bool        `json:"reset,omitempty"`
	Patch FilterPatch `json:"patch"`
}

func ptr[T any](v T) *T { return &v }

var savedViews = []Preset{
	{Name: "all", Label: "All Leads", Reset: true},
	{Name: "high-match", Label: "High Match ≥80", Patch: FilterPatch{MinScore: ptr(80)}},
	{Name: "us-sdr-managers", Label: "US SDR Managers", Patch: FilterPatch{Tags: ptr([]string{"SDR", "Manager"})}},
	{Name: "email-found", Label: "Email Found", Patch: FilterPatch{EmailStatus: ptr(string(domain.EmailFound))}},
	{Name: "first-connections", Label: "1st Connections", Patch: FilterPatch{ConnectionLevel: ptr(string(domain.Connection1st))}},
}

var quickFilters = []Preset{
	{Name: "goodFit", Label: "Good fit (80+)", Patch: FilterPatch{MinScore: ptr(80)}},
	{Name: "usOnly", Label: "US only", Patch: FilterPatch{Location: ptr("US")}},
	{Name: "smb", Label: "SMB", Patch: FilterPatch{CompanySizes: ptr([]string{"11–50", "51–200"})}},
	{Name: "enterprise", Label: "Enterprise", Patch: FilterPatch{CompanySizes: ptr([]string{"1,001–5,000", "5,001+"})}},
}

func SavedViews() []Preset   { return append([]Preset(nil), savedViews...) }
func QuickFilters() []Preset { return append([]Preset(nil), quickFilters...) }

// LookupPreset finds a saved view or quick filter by name or label.
func LookupPreset(name string) (Preset, bool) {
	for _, group := range [][]Preset{savedViews, quickFilters} {
		for _, p := range group {
			if p.Name == name || p.Label == name {
				return p, true
			}
		}
	}
	return Preset{}, false
}

// Apply merges the preset into f.
func (p Preset) Apply(f Filter) Filter {
	if p.Reset {
		f = Filter{}
	}
	return p.Patch.Apply(f)
}
