package query

import (
	"math"
	"net/url"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/fixtures"
)

func ids(leads []domain.Lead) []int64 {
	out := make([]int64, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func lead(id int64, score int) domain.Lead {
	return domain.Lead{ID: id, FullName: "Lead", MatchScore: score, Tags: []string{}}
}

func TestApply_MinScoreKeepsOrder(t *testing.T) {
	leads := []domain.Lead{
		lead(1, 40), lead(2, 92), lead(3, 10), lead(4, 60),
		lead(5, 85), lead(6, 20), lead(7, 30), lead(8, 79),
	}
	got := Apply(leads, Filter{MinScore: 80})
	assert.Equal(t, []int64{2, 5}, ids(got))
}

func TestPredicate_IsPure(t *testing.T) {
	set := fixtures.MustLoad()
	filters := []Filter{
		{},
		{Search: "sales"},
		{Industry: "saas", MinScore: 60},
		{CompanySizes: []string{"51–200"}, Tags: []string{"Enterprise"}},
		{Location: "US", EmailStatus: "Found", ConnectionLevel: "1st"},
	}
	for _, f := range filters {
		p := Predicate(f)
		for _, l := range set.Leads {
			before := l.Clone()
			first := p(l)
			assert.Equal(t, first, p(l))
			assert.Equal(t, before, l)
		}
	}
}

func TestPredicate_Fields(t *testing.T) {
	l := domain.Lead{
		ID: 1, FullName: "Sarah Chen", Headline: "SDR Manager at Acme", Company: "Acme Cloud",
		CompanySize: "51–200", Industry: "Fintech SaaS", Location: "New York, NY, US",
		MatchScore: 70, EmailStatus: domain.EmailFound, ConnectionLevel: domain.Connection2nd,
		Tags: []string{"SDR"},
	}
	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"sentinel all", Filter{Industry: "all", CompanySize: "all", EmailStatus: "all"}, true},
		{"search headline", Filter{Search: "  sdr manager "}, true},
		{"search location", Filter{Search: "new york"}, true},
		{"search miss", Filter{Search: "zzz"}, false},
		{"industry substring", Filter{Industry: "saas"}, true},
		{"industries exact", Filter{Industries: []string{"SaaS"}}, false},
		{"industries hit", Filter{Industries: []string{"SaaS", "Fintech SaaS"}}, true},
		{"company size exact", Filter{CompanySize: "51–200"}, true},
		{"company size miss", Filter{CompanySize: "11–50"}, false},
		{"location substring", Filter{Location: "us"}, true},
		{"email status", Filter{EmailStatus: "NotFound"}, false},
		{"email statuses", Filter{EmailStatuses: []string{"Unknown", "Found"}}, true},
		{"connection", Filter{ConnectionLevel: "2nd"}, true},
		{"connections miss", Filter{ConnectionLevels: []string{"1st"}}, false},
		{"min score equal", Filter{MinScore: 70}, true},
		{"min score above", Filter{MinScore: 71}, false},
		{"tags intersect", Filter{Tags: []string{"Manager", "SDR"}}, true},
		{"tags disjoint", Filter{Tags: []string{"Manager"}}, false},
		{"and", Filter{Industry: "saas", MinScore: 90}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Predicate(tc.f)(l))
		})
	}
}

func TestFilter_ActiveAndPatch(t *testing.T) {
	assert.False(t, Filter{}.Active())
	assert.False(t, Filter{Industry: "all", Search: "  "}.Active())
	assert.True(t, Filter{MinScore: 1}.Active())

	f := FilterPatch{MinScore: ptr(80)}.Apply(Filter{Search: "x"})
	assert.Equal(t, Filter{Search: "x", MinScore: 80}, f)

	tags := []string{"a"}
	f = FilterPatch{Tags: &tags}.Apply(f)
	tags[0] = "mutated"
	assert.Equal(t, []string{"a"}, f.Tags)
	assert.True(t, FilterPatch{}.Empty())
}

func TestSort_DescThenReversedAsc(t *testing.T) {
	set := fixtures.MustLoad()
	desc := Sort(set.Leads, SortMatchScoreDesc)
	asc := Sort(set.Leads, SortMatchScoreAsc)
	slices.Reverse(asc)

	scores := func(ls []domain.Lead) []int {
		out := make([]int, len(ls))
		for i, l := range ls {
			out[i] = l.MatchScore
		}
		return out
	}
	assert.Equal(t, scores(desc), scores(asc))
	assert.IsNonIncreasing(t, scores(desc))
}

func TestSort_StableAndCopy(t *testing.T) {
	leads := []domain.Lead{lead(1, 50), lead(2, 90), lead(3, 50), lead(4, 90)}
	got := Sort(leads, SortMatchScoreDesc)
	assert.Equal(t, []int64{2, 4, 1, 3}, ids(got))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(leads))

	assert.Equal(t, []int64{4, 3, 2, 1}, ids(Sort(leads, SortRecentlyAdded)))
}

func TestSort_CompanySizeIsLexicographic(t *testing.T) {
	a := domain.Lead{ID: 1, CompanySize: "5,001+"}
	b := domain.Lead{ID: 2, CompanySize: "11–50"}
	got := Sort([]domain.Lead{a, b}, SortCompanySize)
	assert.Equal(t, []int64{2, 1}, ids(got))
}

func TestParseSortMode(t *testing.T) {
	m, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortMatchScoreDesc, m)

	m, err = ParseSortMode("title_az")
	require.NoError(t, err)
	assert.Equal(t, SortTitleAZ, m)

	_, err = ParseSortMode("alphabetical")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestPaginate_ConcatReproducesInput(t *testing.T) {
	for _, n := range []int{0, 1, 24, 25, 26, 50, 73} {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		pages := TotalPages(n, DefaultPageSize)
		assert.Equal(t, (n+24)/25, pages, "n=%d", n)

		var joined []int
		for p := 1; p <= pages; p++ {
			page := Paginate(items, p, DefaultPageSize)
			assert.LessOrEqual(t, len(page.Items), DefaultPageSize)
			joined = append(joined, page.Items...)
		}
		if n == 0 {
			assert.Empty(t, joined)
			continue
		}
		if diff := cmp.Diff(items, joined); diff != "" {
			t.Fatalf("n=%d (-want +got):\n%s", n, diff)
		}
	}
}

func TestPaginate_Clamps(t *testing.T) {
	items := []int{1, 2, 3}
	p := Paginate(items, 0, 2)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, []int{1, 2}, p.Items)

	p = Paginate(items, 9, 2)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 2, p.TotalPages)

	p = Paginate(items, math.MaxInt, 25)
	assert.Empty(t, p.Items)
	assert.Equal(t, 3, p.Total)

	p = Paginate(items, 1, math.MaxInt)
	assert.Equal(t, items, p.Items)
	assert.Equal(t, 1, p.TotalPages)
}

func TestRun_HugePageIsEmpty(t *testing.T) {
	req, err := ParseRequest(url.Values{"page": {"368934881474191034"}}, DefaultPageSize)
	require.NoError(t, err)

	leads := fixtures.MustLoad().Leads
	var p Page[domain.Lead]
	require.NotPanics(t, func() { p = Run(leads, req) })
	assert.Empty(t, p.Items)
	assert.Equal(t, len(leads), p.Total)
}

func TestPresets(t *testing.T) {
	p, ok := LookupPreset("High Match ≥80")
	require.True(t, ok)
	f := p.Apply(Filter{Search: "kept"})
	assert.Equal(t, 80, f.MinScore)
	assert.Equal(t, "kept", f.Search)

	all, ok := LookupPreset("all")
	require.True(t, ok)
	assert.False(t, all.Apply(f).Active())

	smb, ok := LookupPreset("smb")
	require.True(t, ok)
	assert.Equal(t, []string{"11–50", "51–200"}, smb.Apply(Filter{}).CompanySizes)

	_, ok = LookupPreset("nope")
	assert.False(t, ok)
}

func TestParseRequest(t *testing.T) {
	v := url.Values{
		"search":        {"sales"},
		"industries":    {"SaaS,Fintech SaaS"},
		"company_sizes": {"1,001–5,000", "5,001+"},
		"min_score":     {"60"},
		"sort":          {"recently_added"},
		"page":          {"2"},
	}
	r, err := ParseRequest(v, DefaultPageSize)
	require.NoError(t, err)
	assert.Equal(t, []string{"SaaS", "Fintech SaaS"}, r.Filter.Industries)
	assert.Equal(t, []string{"1,001–5,000", "5,001+"}, r.Filter.CompanySizes)
	assert.Equal(t, 60, r.Filter.MinScore)
	assert.Equal(t, SortRecentlyAdded, r.Sort)
	assert.Equal(t, 2, r.Page)
	assert.Equal(t, DefaultPageSize, r.PageSize)

	_, err = ParseRequest(url.Values{"min_score": {"abc"}}, DefaultPageSize)
	assert.ErrorIs(t, err, domain.ErrInvalid)
	_, err = ParseRequest(url.Values{"min_score": {"120"}}, DefaultPageSize)
	assert.ErrorIs(t, err, domain.ErrInvalid)
	_, err = ParseRequest(url.Values{"sort": {"bogus"}}, DefaultPageSize)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestRun_FilterSortPaginate(t *testing.T) {
	set := fixtures.MustLoad()
	page := Run(set.Leads, Request{Filter: Filter{MinScore: 50}, Sort: SortMatchScoreDesc, Page: 1, PageSize: 5})
	require.Len(t, page.Items, 5)
	for _, l := range page.Items {
		assert.GreaterOrEqual(t, l.MatchScore, 50)
	}
	assert.Equal(t, len(Apply(set.Leads, Filter{MinScore: 50})), page.Total)
}
