package store

import (
	"context"
	"slices"
	"sort"

	"siftin-engine/internal/domain"
)

var LeadKind = Kind[domain.Lead]{
	Name:  "Lead",
	ID:    func(l domain.Lead) int64 { return l.ID },
	Clone: domain.Lead.Clone,
}

// Leads is the lead fixture store.
type Leads struct {
	base
	t Table[domain.Lead]
}

func NewLeads(t Table[domain.Lead], opts ...Option) *Leads {
	return &Leads{base: newBase(opts), t: t}
}

func (s *Leads) GetAll(ctx context.Context) ([]domain.Lead, error) {
	if err := wait(ctx, s.lat.GetAll); err != nil {
		return nil, err
	}
	return s.t.List(ctx)
}

func (s *Leads) GetByID(ctx context.Context, id int64) (domain.Lead, error) {
	if err := wait(ctx, s.lat.GetByID); err != nil {
		return domain.Lead{}, err
	}
	return s.t.Get(ctx, id)
}

func (s *Leads) Create(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	if err := wait(ctx, s.lat.Create); err != nil {
		return domain.Lead{}, err
	}
	l = l.Normalize()
	if err := l.Validate(); err != nil {
		return domain.Lead{}, err
	}
	return s.t.Insert(ctx, func(id int64) (domain.Lead, error) {
		l.ID = id
		l.CreatedAt = s.now()
		return l, nil
	})
}

func (s *Leads) Update(ctx context.Context, id int64, p domain.LeadPatch) (domain.Lead, error) {
	if err := wait(ctx, s.lat.Update); err != nil {
		return domain.Lead{}, err
	}
	return s.t.Update(ctx, id, patchLead(p))
}

func (s *Leads) Delete(ctx context.Context, id int64) (domain.Lead, error) {
	if err := wait(ctx, s.lat.Delete); err != nil {
		return domain.Lead{}, err
	}
	return s.t.Delete(ctx, id)
}

// BulkUpdate applies p to every known id in one step. Unknown ids are skipped.
func (s *Leads) BulkUpdate(ctx context.Context, ids []int64, p domain.LeadPatch) ([]domain.Lead, error) {
	if err := wait(ctx, s.lat.BulkUpdate); err != nil {
		return nil, err
	}
	return s.t.UpdateMany(ctx, ids, patchLead(p))
}

func patchLead(p domain.LeadPatch) func(domain.Lead) (domain.Lead, error) {
	return func(cur domain.Lead) (domain.Lead, error) {
		next := p.Apply(cur).Normalize()
		if err := next.Validate(); err != nil {
			return domain.Lead{}, err
		}
		return next, nil
	}
}

// Seed replaces the collection without latency.
func (s *Leads) Seed(ctx context.Context, leads []domain.Lead) error {
	return s.t.Reset(ctx, leads)
}

type Facets struct {
	Industries   []string `json:"industries"`
	CompanySizes []string `json:"company_sizes"`
	Locations    []string `json:"locations"`
	Tags         []string `json:"tags"`
}

// Facets lists the distinct non-empty values the lead filters can select from.
func (s *Leads) Facets(ctx context.Context) (Facets, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return Facets{}, err
	}
	return FacetsOf(all), nil
}

func FacetsOf(leads []domain.Lead) Facets {
	uniq := func(get func(domain.Lead) []string) []string {
		seen := map[string]bool{}
		out := []string{}
		for _, l := range leads {
			for _, v := range get(l) {
				if v == "" || seen[v] {
					continue
				}
				seen[v] = true
				out = append(out, v)
			}
		}
		sort.Strings(out)
		return out
	}
	f := Facets{
		Industries: uniq(func(l domain.Lead) []string { return []string{l.Industry} }),
		Locations:  uniq(func(l domain.Lead) []string { return []string{l.Location} }),
		Tags:       uniq(func(l domain.Lead) []string { return l.Tags }),
	}
	present := uniq(func(l domain.Lead) []string { return []string{l.CompanySize} })
	// size buckets read better in bucket order; unknown labels go last
	f.CompanySizes = []string{}
	for _, b := range domain.CompanySizes {
		if slices.Contains(present, b) {
			f.CompanySizes = append(f.CompanySizes, b)
		}
	}
	for _, v := range present {
		if !slices.Contains(domain.CompanySizes, v) {
			f.CompanySizes = append(f.CompanySizes, v)
		}
	}
	return f
}

// Search returns the leads passing keep, in collection order.
func (s *Leads) Search(ctx context.Context, keep func(domain.Lead) bool) ([]domain.Lead, error) {
	if err := wait(ctx, s.lat.Search); err != nil {
		return nil, err
	}
	all, err := s.t.List(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(l domain.Lead) bool { return !keep(l) }), nil
}
