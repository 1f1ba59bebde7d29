package rank

import (
	"math"
	"strings"
	"unicode"

	"siftin-engine/internal/config"
	"siftin-engine/internal/domain"
)

// CriteriaScorer scores a lead from the configured keyword rules plus how
// many criteria terms appear in the lead's profile. The same lead and
// criteria always give the same result.
type CriteriaScorer struct {
	Cfg      config.Config
	Min, Max int
}

func NewCriteriaScorer(cfg config.Config) CriteriaScorer {
	return CriteriaScorer{Cfg: cfg, Min: cfg.Capture.MinScore, Max: cfg.Capture.MaxScore}
}

func (s CriteriaScorer) Score(lead domain.Lead, criteria string) Result {
	text := strings.ToLower(strings.Join([]string{
		lead.Headline, lead.Company, lead.Industry, lead.Location, lead.CompanySize,
	}, " "))

	raw := 0
	var tags []string

	applyRules := func(rules []config.Rule) {
		for _, r := range rules {
			for _, needle := range r.Any {
				n := strings.ToLower(needle)
				if strings.Contains(text, n) {
					raw += r.Weight
					tags = append(tags, r.Tag)
					break
				}
			}
		}
	}

	applyRules(s.Cfg.Scoring.TitleRules)
	applyRules(s.Cfg.Scoring.KeywordRules)

	for _, p := range s.Cfg.Scoring.Penalties {
		for _, needle := range p.Any {
			n := strings.ToLower(needle)
			if strings.Contains(text, n) {
				raw += p.Weight
				break
			}
		}
	}

	terms := Terms(criteria)
	var hits []string
	for _, t := range terms {
		if strings.Contains(text, t) {
			hits = append(hits, t)
		}
	}
	if len(terms) > 0 {
		raw += int(math.Round(60 * float64(len(hits)) / float64(len(terms))))
	}

	lo, hi := s.Min, s.Max
	if hi <= lo {
		lo, hi = 0, 100
	}
	pct := float64(min(max(raw, 0), 100)) / 100
	score := lo + int(math.Round(pct*float64(hi-lo)))

	tags = uniq(tags)
	return Result{Score: score, Reason: reason(score, hits, tags), Tags: tags}
}

func reason(score int, hits, tags []string) string {
	var lead string
	switch {
	case score >= 90:
		lead = "Excellent fit for"
	case score >= 80:
		lead = "Strong match for"
	case score >= 70:
		lead = "Good match for"
	default:
		lead = "Partial match for"
	}
	focus := hits
	if len(focus) == 0 {
		focus = tags
	}
	if len(focus) == 0 {
		return lead + " stated criteria"
	}
	if len(focus) > 2 {
		focus = focus[:2]
	}
	return lead + " " + strings.Join(focus, " and ") + " criteria"
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "who": true, "are": true,
	"at": true, "in": true, "of": true, "on": true, "to": true, "or": true,
	"companies": true, "company": true, "people": true, "employees": true,
	"last": true, "days": true, "posted": true, "actively": true,
}

// Terms splits criteria text into lower-case search terms, dropping short
// words, numbers and filler.
func Terms(criteria string) []string {
	fields := strings.FieldsFunc(strings.ToLower(criteria), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] || isNumber(f) {
			continue
		}
		out = append(out, f)
	}
	return uniq(out)
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
