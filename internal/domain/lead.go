package domain

import (
	"slices"
	"time"
)

type EmailStatus string

const (
	EmailUnknown  EmailStatus = "Unknown"
	EmailFound    EmailStatus = "Found"
	EmailNotFound EmailStatus = "NotFound"
)

func (s EmailStatus) Valid() bool {
	switch s {
	case EmailUnknown, EmailFound, EmailNotFound:
		return true
	}
	return false
}

type ConnectionLevel string

const (
	Connection1st ConnectionLevel = "1st"
	Connection2nd ConnectionLevel = "2nd"
	Connection3rd ConnectionLevel = "3rd"
)

func (c ConnectionLevel) Valid() bool {
	switch c {
	case Connection1st, Connection2nd, Connection3rd:
		return true
	}
	return false
}

// CompanySizes lists the bucket labels in their natural (numeric) order.
var CompanySizes = []string{"1–10", "11–50", "51–200", "201–500", "501–1,000", "1,001–5,000", "5,001+"}

type Lead struct {
	ID              int64           `json:"id" yaml:"id"`
	FullName        string          `json:"full_name" yaml:"full_name"`
	Headline        string          `json:"headline" yaml:"headline"`
	Company         string          `json:"company" yaml:"company"`
	CompanySize     string          `json:"company_size" yaml:"company_size"`
	Industry        string          `json:"industry" yaml:"industry"`
	Location        string          `json:"location" yaml:"location"`
	MatchScore      int             `json:"match_score" yaml:"match_score"`
	MatchReason     string          `json:"match_reason" yaml:"match_reason"`
	EmailStatus     EmailStatus     `json:"email_status" yaml:"email_status"`
	ConnectionLevel ConnectionLevel `json:"connection_level" yaml:"connection_level"`
	Tags            []string        `json:"tags" yaml:"tags"`
	LinkedInURL     string          `json:"linkedin_url" yaml:"linkedin_url"`
	ProfileImg      string          `json:"profile_img" yaml:"profile_img"`
	Notes           string          `json:"notes" yaml:"notes"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
}

// Clone returns a copy that shares no slices with l.
func (l Lead) Clone() Lead {
	l.Tags = slices.Clone(l.Tags)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return l
}

func (l Lead) HasTag(tag string) bool {
	return slices.Contains(l.Tags, tag)
}

// Normalize cleans free text fields and fills enum defaults.
func (l Lead) Normalize() Lead {
	l.FullName = CleanText(l.FullName)
	l.Headline = CleanText(l.Headline)
	l.Company = CleanText(l.Company)
	l.CompanySize = CleanText(l.CompanySize)
	l.Industry = CleanText(l.Industry)
	l.Location = NormalizeLocation(l.Location)
	l.Tags = NormalizeTags(l.Tags)
	if l.EmailStatus == "" {
		l.EmailStatus = EmailUnknown
	}
	if l.ConnectionLevel == "" {
		l.ConnectionLevel = Connection3rd
	}
	return l
}

func (l Lead) Validate() error {
	if l.FullName == "" {
		return Invalidf("full_name is required")
	}
	if l.MatchScore < 0 || l.MatchScore > 100 {
		return Invalidf("match_score must be 0..100, got %d", l.MatchScore)
	}
	if !l.EmailStatus.Valid() {
		return Invalidf("email_status %q is not one of Unknown, Found, NotFound", l.EmailStatus)
	}
	if !l.ConnectionLevel.Valid() {
		return Invalidf("connection_level %q is not one of 1st, 2nd, 3rd", l.ConnectionLevel)
	}
	return nil
}

// LeadPatch is a partial update; nil fields are left untouched.
// AddTags and RemoveTags are applied after Tags with set semantics.
type LeadPatch struct {
	FullName        *string          `json:"full_name,omitempty"`
	Headline        *string          `json:"headline,omitempty"`
	Company         *string          `json:"company,omitempty"`
	CompanySize     *string          `json:"company_size,omitempty"`
	Industry        *string          `json:"industry,omitempty"`
	Location        *string          `json:"location,omitempty"`
	MatchScore      *int             `json:"match_score,omitempty"`
	MatchReason     *string          `json:"match_reason,omitempty"`
	EmailStatus     *EmailStatus     `json:"email_status,omitempty"`
	ConnectionLevel *ConnectionLevel `json:"connection_level,omitempty"`
	Tags            *[]string        `json:"tags,omitempty"`
	AddTags         []string         `json:"add_tags,omitempty"`
	RemoveTags      []string         `json:"remove_tags,omitempty"`
	LinkedInURL     *string          `json:"linkedin_url,omitempty"`
	ProfileImg      *string          `json:"profile_img,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

func (p LeadPatch) Apply(l Lead) Lead {
	l = l.Clone()
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&l.FullName, p.FullName)
	set(&l.Headline, p.Headline)
	set(&l.Company, p.Company)
	set(&l.CompanySize, p.CompanySize)
	set(&l.Industry, p.Industry)
	set(&l.Location, p.Location)
	set(&l.MatchReason, p.MatchReason)
	set(&l.LinkedInURL, p.LinkedInURL)
	set(&l.ProfileImg, p.ProfileImg)
	set(&l.Notes, p.Notes)
	if p.MatchScore != nil {
		l.MatchScore = *p.MatchScore
	}
	if p.EmailStatus != nil {
		l.EmailStatus = *p.EmailStatus
	}
	if p.ConnectionLevel != nil {
		l.ConnectionLevel = *p.ConnectionLevel
	}
	if p.Tags != nil {
		l.Tags = slices.Clone(*p.Tags)
	}
	if len(p.AddTags) > 0 {
		l.Tags = NormalizeTags(append(l.Tags, p.AddTags...))
	}
	if len(p.RemoveTags) > 0 {
		l.Tags = slices.DeleteFunc(l.Tags, func(t string) bool {
			return slices.Contains(p.RemoveTags, t)
		})
	}
	return l
}

// TagPatch adds a single tag.
func TagPatch(tag string) LeadPatch {
	return LeadPatch{AddTags: []string{tag}}
}
