package domain

import "time"

type Destination string

const (
	DestCSV        Destination = "CSV"
	DestHubSpot    Destination = "HubSpot"
	DestSalesforce Destination = "Salesforce"
	DestPipedrive  Destination = "Pipedrive"
	DestZapier     Destination = "Zapier"
)

var Destinations = []Destination{DestCSV, DestHubSpot, DestSalesforce, DestPipedrive, DestZapier}

func (d Destination) Valid() bool {
	for _, x := range Destinations {
		if d == x {
			return true
		}
	}
	return false
}

type ExportStatus string

const (
	ExportQueued ExportStatus = "Queued"
	ExportSent   ExportStatus = "Sent"
	ExportError  ExportStatus = "Error"
)

func (s ExportStatus) Valid() bool {
	switch s {
	case ExportQueued, ExportSent, ExportError:
		return true
	}
	return false
}

type Export struct {
	ID          int64        `json:"id" yaml:"id"`
	Destination Destination  `json:"destination" yaml:"destination"`
	RecordCount int          `json:"record_count" yaml:"record_count"`
	MappingName string       `json:"mapping_name" yaml:"mapping_name"`
	Status      ExportStatus `json:"status" yaml:"status"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
}

func (e Export) Validate() error {
	if !e.Destination.Valid() {
		return Invalidf("destination %q is not one of CSV, HubSpot, Salesforce, Pipedrive, Zapier", e.Destination)
	}
	if e.RecordCount < 0 {
		return Invalidf("record_count must be >= 0")
	}
	if !e.Status.Valid() {
		return Invalidf("status %q is not an export status", e.Status)
	}
	return nil
}

type ExportPatch struct {
	Status      *ExportStatus `json:"status,omitempty"`
	MappingName *string       `json:"mapping_name,omitempty"`
	RecordCount *int          `json:"record_count,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}

func (p ExportPatch) Apply(e Export) Export {
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.MappingName != nil {
		e.MappingName = *p.MappingName
	}
	if p.RecordCount != nil {
		e.RecordCount = *p.RecordCount
	}
	if p.CreatedAt != nil {
		e.CreatedAt = *p.CreatedAt
	}
	return e
}
