// Package view keeps server-side lead list state: the loaded records, the
// active filter and sort, the current page and the selection.
package view

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/query"
)

// ErrStale is returned by a load whose result was superseded by a newer load.
var ErrStale = errors.New("stale completion discarded")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// LeadSource is the slice of the lead store a view needs.
type LeadSource interface {
	GetAll(ctx context.Context) ([]domain.Lead, error)
	BulkUpdate(ctx context.Context, ids []int64, p domain.LeadPatch) ([]domain.Lead, error)
}

// View is a rendered snapshot of a controller.
type View struct {
	Status     Status         `json:"status"`
	Error      string         `json:"error,omitempty"`
	Filter     query.Filter   `json:"filter"`
	Sort       query.SortMode `json:"sort"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
	Loaded     int            `json:"loaded"`
	Items      []domain.Lead  `json:"items"`
	Selected   []int64        `json:"selected"`
	// AllSelected drives the header checkbox: every visible row is selected.
	AllSelected bool   `json:"all_selected"`
	Token       uint64 `json:"token"`
}

type Controller struct {
	src      LeadSource
	pageSize int

	mu       sync.Mutex
	records  []domain.Lead
	filter   query.Filter
	sort     query.SortMode
	page     int
	selected []int64
	status   Status
	err      error
	token    uint64
}

func NewController(src LeadSource, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}
	return &Controller{
		src:      src,
		pageSize: pageSize,
		sort:     query.DefaultSort,
		page:     1,
		status:   StatusIdle,
		selected: []int64{},
	}
}

// Load fetches the records. If another load starts before this one returns,
// this result is dropped and ErrStale comes back.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.token++
	tok := c.token
	c.status = StatusLoading
	c.mu.Unlock()

	leads, err := c.src.GetAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if tok != c.token {
		return ErrStale
	}
	if err != nil {
		c.status = StatusFailed
		c.err = err
		return err
	}
	c.records = leads
	c.status = StatusReady
	c.err = nil
	c.page = clampPage(c.page, c.totalPagesLocked())
	c.selected = slices.DeleteFunc(c.selected, func(id int64) bool { return !c.hasRecord(id) })
	return nil
}

// Retry is Load under the name the error state offers.
func (c *Controller) Retry(ctx context.Context) error {
	return c.Load(ctx)
}

func (c *Controller) Token() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetFilter merges p into the filter, then goes back to page 1 and clears the selection.
func (c *Controller) SetFilter(p query.FilterPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := p.Apply(c.filter)
	if err := next.Validate(); err != nil {
		return err
	}
	c.filter = next
	c.resetLocked()
	return nil
}

func (c *Controller) ResetFilter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = query.Filter{}
	c.resetLocked()
}

func (c *Controller) ApplyPreset(name string) error {
	p, ok := query.LookupPreset(name)
	if !ok {
		return domain.Invalidf("unknown preset %q", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = p.Apply(c.filter)
	c.resetLocked()
	return nil
}

func (c *Controller) resetLocked() {
	c.page = 1
	c.selected = []int64{}
}

// SetSort changes the order only. Page and selection stay.
func (c *Controller) SetSort(mode query.SortMode) error {
	if !slices.Contains(query.SortModes, mode) {
		return domain.Invalidf("unknown sort %q", mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = mode
	return nil
}

// SetPage clamps n to [1, max(1, total pages)] and returns the page used.
func (c *Controller) SetPage(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = clampPage(n, c.totalPagesLocked())
	return c.page
}

func clampPage(n, total int) int {
	return max(1, min(n, max(1, total)))
}

func (c *Controller) ToggleSelect(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := slices.Index(c.selected, id); i >= 0 {
		c.selected = slices.Delete(c.selected, i, i+1)
		return false, nil
	}
	if !c.hasRecord(id) {
		return false, domain.NotFoundError{Kind: "Lead", ID: id}
	}
	c.selected = append(c.selected, id)
	return true, nil
}

// SelectAll replaces the selection with the visible page.
func (c *Controller) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = idsOf(c.visibleLocked())
}

// ToggleSelectAll clears the selection when it already covers the visible
// page, otherwise selects the visible page.
func (c *Controller) ToggleSelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := c.visibleLocked()
	if len(visible) > 0 && len(c.selected) == len(visible) {
		c.selected = []int64{}
		return
	}
	c.selected = idsOf(visible)
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = []int64{}
}

// BulkTag adds tag to ids, or to the selection when ids is empty, then
// reloads and clears the selection. It returns how many leads were tagged.
func (c *Controller) BulkTag(ctx context.Context, ids []int64, tag string) (int, error) {
	tag = domain.CleanText(tag)
	if tag == "" {
		return 0, domain.Invalidf("tag is required")
	}
	if len(ids) == 0 {
		ids = c.Selected()
	}
	if len(ids) == 0 {
		return 0, domain.Invalidf("no leads selected")
	}
	updated, err := c.src.BulkUpdate(ctx, ids, domain.TagPatch(tag))
	if err != nil {
		return 0, fmt.Errorf("bulk tag: %w", err)
	}
	if err := c.Load(ctx); err != nil && !errors.Is(err, ErrStale) {
		return len(updated), err
	}
	c.ClearSelection()
	return len(updated), nil
}

func (c *Controller) Filter() query.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Clone()
}

func (c *Controller) Selected() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.selected)
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := query.Sort(query.Apply(c.records, c.filter), c.sort)
	page := query.Paginate(sorted, c.page, c.pageSize)
	v := View{
		Status:     c.status,
		Filter:     c.filter.Clone(),
		Sort:       c.sort,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		Loaded:     len(c.records),
		Items:      page.Items,
		Selected:   slices.Clone(c.selected),
		Token:      c.token,
	}
	if c.err != nil {
		v.Error = c.err.Error()
	}
	v.AllSelected = len(page.Items) > 0 && len(c.selected) == len(page.Items)
	return v
}

func (c *Controller) visibleLocked() []domain.Lead {
	sorted := query.Sort(query.Apply(c.records, c.filter), c.sort)
	return query.Paginate(sorted, c.page, c.pageSize).Items
}

func (c *Controller) totalPagesLocked() int {
	return query.TotalPages(len(query.Apply(c.records, c.filter)), c.pageSize)
}

func (c *Controller) hasRecord(id int64) bool {
	return slices.ContainsFunc(c.records, func(l domain.Lead) bool { return l.ID == id })
}

func idsOf(leads []domain.Lead) []int64 {
	out := make([]int64, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}
