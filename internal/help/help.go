// Package help serves the getting-started checklist and FAQ bundled with the
// engine.
package help

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"siftin-engine/internal/domain"
)

//go:embed help.html
var page string

type Step struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Content struct {
	Title string `json:"title"`
	Intro string `json:"intro"`
	Steps []Step `json:"steps"`
	FAQs  []FAQ  `json:"faqs"`
}

// Parse reads help content out of an HTML document.
func Parse(html string) (Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Content{}, err
	}

	c := Content{
		Title: domain.CleanText(doc.Find("h1").First().Text()),
		Intro: domain.CleanText(doc.Find("p.lede").First().Text()),
		Steps: []Step{},
		FAQs:  []FAQ{},
	}

	doc.Find("#getting-started li.step").Each(func(i int, s *goquery.Selection) {
		id, err := strconv.Atoi(s.AttrOr("data-id", ""))
		if err != nil {
			id = i + 1
		}
		c.Steps = append(c.Steps, Step{
			ID:          id,
			Title:       domain.CleanText(s.Find("h3").First().Text()),
			Description: domain.CleanText(s.Find("p").First().Text()),
			Link:        strings.TrimSpace(s.AttrOr("data-link", "")),
		})
	})

	doc.Find("#faq details.faq").Each(func(_ int, s *goquery.Selection) {
		q := domain.CleanText(s.Find("summary").First().Text())
		if q == "" {
			return
		}
		c.FAQs = append(c.FAQs, FAQ{
			Question: q,
			Answer:   domain.CleanText(s.Find("p").Text()),
		})
	})
	return c, nil
}

// Load parses the embedded help page.
func Load() (Content, error) {
	return Parse(page)
}

// Search returns the FAQs whose question or answer contains every word of q,
// ignoring case. A blank query returns all of them.
func (c Content) Search(q string) []FAQ {
	words := strings.Fields(strings.ToLower(q))
	out := []FAQ{}
	for _, f := range c.FAQs {
		text := strings.ToLower(f.Question + " " + f.Answer)
		match := true
		for _, w := range words {
			if !strings.Contains(text, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, f)
		}
	}
	return out
}
