package main

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"siftin-engine/internal/fixtures"
	"siftin-engine/internal/query"
)

var leadsFlags struct {
	search      string
	industry    string
	location    string
	emailStatus string
	connection  string
	tags        []string
	minScore    int
	sort        string
	page        int
	pageSize    int
}

func addLeadsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&leadsFlags.search, "search", "", "text to find in name, headline, company, industry or location")
	f.StringVar(&leadsFlags.industry, "industry", "", "industry substring")
	f.StringVar(&leadsFlags.location, "location", "", "location substring")
	f.StringVar(&leadsFlags.emailStatus, "email-status", "", "Unknown, Found or NotFound")
	f.StringVar(&leadsFlags.connection, "connection", "", "1st, 2nd or 3rd")
	f.StringSliceVar(&leadsFlags.tags, "tag", nil, "keep leads with any of these tags (repeatable)")
	f.IntVar(&leadsFlags.minScore, "min-score", 0, "minimum match score")
	f.StringVar(&leadsFlags.sort, "sort", string(query.DefaultSort), "match_score_desc, match_score_asc, company_size, title_az or recently_added")
	f.IntVar(&leadsFlags.page, "page", 1, "page number")
	f.IntVar(&leadsFlags.pageSize, "page-size", query.DefaultPageSize, "leads per page")
}

// leadsValues turns the flags into the query string the HTTP API takes, so
// both go through the same parser.
func leadsValues() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("search", leadsFlags.search)
	set("industry", leadsFlags.industry)
	set("location", leadsFlags.location)
	set("email_status", leadsFlags.emailStatus)
	set("connection_level", leadsFlags.connection)
	for _, t := range leadsFlags.tags {
		v.Add("tags", t)
	}
	if leadsFlags.minScore != 0 {
		v.Set("min_score", strconv.Itoa(leadsFlags.minScore))
	}
	set("sort", leadsFlags.sort)
	v.Set("page", strconv.Itoa(leadsFlags.page))
	v.Set("page_size", strconv.Itoa(leadsFlags.pageSize))
	return v
}

func runLeads(cmd *cobra.Command, args []string) error {
	req, err := query.ParseRequest(leadsValues(), query.DefaultPageSize)
	if err != nil {
		return err
	}
	set, err := fixtures.Load()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(query.Run(set.Leads, req))
}
