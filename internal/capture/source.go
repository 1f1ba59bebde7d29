package capture

import (
	"net/url"
	"sort"
	"strings"

	"siftin-engine/internal/domain"
)

// CanonicalSourceURL validates a LinkedIn search URL and strips tracking
// parameters and the fragment so equal searches compare equal.
func CanonicalSourceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.Invalidf("LinkedIn URL is required")
	}
	if !strings.Contains(strings.ToLower(raw), "linkedin.com") {
		return "", domain.Invalidf("Please enter a valid LinkedIn search URL")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", domain.Invalidf("Please enter a valid LinkedIn search URL")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" || u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	if !strings.HasSuffix(u.Host, "linkedin.com") {
		return "", domain.Invalidf("Please enter a valid LinkedIn search URL")
	}
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "trk" || lk == "trackingid" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
