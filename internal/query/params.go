package query

import (
	"net/url"
	"strconv"
	"strings"

	"siftin-engine/internal/domain"
)

// Request is a filter, sort and page decoded from a query string.
type Request struct {
	Filter   Filter
	Sort     SortMode
	Page     int
	PageSize int
}

// ParseRequest reads filter, sort, page and page_size from v.
// List fields accept repeated keys or comma separated values.
func ParseRequest(v url.Values, defaultSize int) (Request, error) {
	f, err := ParseFilter(v)
	if err != nil {
		return Request{}, err
	}
	mode, err := ParseSortMode(v.Get("sort"))
	if err != nil {
		return Request{}, err
	}
	page, err := intParam(v, "page", 1)
	if err != nil {
		return Request{}, err
	}
	size, err := intParam(v, "page_size", defaultSize)
	if err != nil {
		return Request{}, err
	}
	if size < 1 || size > 500 {
		return Request{}, domain.Invalidf("page_size must be 1..500, got %d", size)
	}
	return Request{Filter: f, Sort: mode, Page: page, PageSize: size}, nil
}

func ParseFilter(v url.Values) (Filter, error) {
	f := Filter{
		Search:           strings.TrimSpace(v.Get("search")),
		Industry:         v.Get("industry"),
		CompanySize:      v.Get("company_size"),
		Location:         v.Get("location"),
		EmailStatus:      v.Get("email_status"),
		ConnectionLevel:  v.Get("connection_level"),
		Industries:       listParam(v, "industries"),
		CompanySizes:     listParam(v, "company_sizes"),
		EmailStatuses:    listParam(v, "email_statuses"),
		ConnectionLevels: listParam(v, "connection_levels"),
		Tags:             listParam(v, "tags"),
	}
	score, err := intParam(v, "min_score", 0)
	if err != nil {
		return Filter{}, err
	}
	f.MinScore = score
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func intParam(v url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalidf("%s must be an integer", key)
	}
	return n, nil
}

// listParam splits on commas except for company sizes, whose labels carry them.
func listParam(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		parts := []string{raw}
		if key != "company_sizes" {
			parts = strings.Split(raw, ",")
		}
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Run executes the whole pipeline: filter, then sort, then paginate.
func Run(leads []domain.Lead, r Request) Page[domain.Lead] {
	return Paginate(Sort(Apply(leads, r.Filter), r.Sort), r.Page, r.PageSize)
}
