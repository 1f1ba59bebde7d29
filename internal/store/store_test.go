package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/fixtures"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOpts() []Option {
	return []Option{WithLatency(Latency{}), WithClock(func() time.Time { return fixedNow })}
}

// backends runs fn against a seeded memory store and a seeded sqlite store.
func backends(t *testing.T, fn func(t *testing.T, s *Stores)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		s := NewMemory(testOpts()...)
		require.NoError(t, s.Seed(context.Background(), fixtures.MustLoad()))
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		s, err := NewSQLite(dsn, testOpts()...)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.Seed(context.Background(), fixtures.MustLoad()))
		fn(t, s)
	})
}

func TestLeads_DeleteMissing(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		ctx := context.Background()
		before, err := s.Leads.GetAll(ctx)
		require.NoError(t, err)

		_, err = s.Leads.Delete(ctx, 9999)
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.EqualError(t, err, "Lead not found")

		after, err := s.Leads.GetAll(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("collection changed (-before +after):\n%s", diff)
		}
	})
}

func TestLeads_CreateAssignsNextID(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		ctx := context.Background()
		all, err := s.Leads.GetAll(ctx)
		require.NoError(t, err)
		var maxID int64
		for _, l := range all {
			maxID = max(maxID, l.ID)
		}

		got, err := s.Leads.Create(ctx, domain.Lead{FullName: "  Ada   Lovelace ", MatchScore: 77, Tags: []string{"a", "a", " "}})
		require.NoError(t, err)
		assert.Equal(t, maxID+1, got.ID)
		assert.Equal(t, "Ada Lovelace", got.FullName)
		assert.Equal(t, []string{"a"}, got.Tags)
		assert.Equal(t, domain.EmailUnknown, got.EmailStatus)
		assert.Equal(t, fixedNow, got.CreatedAt)

		back, err := s.Leads.GetByID(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, got.FullName, back.FullName)

		_, err = s.Leads.Create(ctx, domain.Lead{FullName: "x", MatchScore: 101})
		assert.ErrorIs(t, err, domain.ErrInvalid)
	})
}

func TestLeads_UpdateAndBulkUpdate(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		ctx := context.Background()
		score := 12
		got, err := s.Leads.Update(ctx, 1, domain.LeadPatch{MatchScore: &score})
		require.NoError(t, err)
		assert.Equal(t, 12, got.MatchScore)

		_, err = s.Leads.Update(ctx, 4242, domain.LeadPatch{MatchScore: &score})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		updated, err := s.Leads.BulkUpdate(ctx, []int64{1, 2, 4242, 2}, domain.TagPatch("hot"))
		require.NoError(t, err)
		require.Len(t, updated, 2)
		for _, l := range updated {
			assert.True(t, l.HasTag("hot"))
		}

		// idempotent
		again, err := s.Leads.BulkUpdate(ctx, []int64{1}, domain.TagPatch("hot"))
		require.NoError(t, err)
		n := 0
		for _, tag := range again[0].Tags {
			if tag == "hot" {
				n++
			}
		}
		assert.Equal(t, 1, n)
	})
}

func TestLeads_BulkUpdateIsAllOrNothing(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		ctx := context.Background()
		before, err := s.Leads.GetAll(ctx)
		require.NoError(t, err)

		bad := 300
		_, err = s.Leads.BulkUpdate(ctx, []int64{1, 2, 3}, domain.LeadPatch{MatchScore: &bad})
		require.ErrorIs(t, err, domain.ErrInvalid)

		after, err := s.Leads.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(before, after))
	})
}

func TestLeads_ReturnsCopies(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		ctx := context.Background()
		l, err := s.Leads.GetByID(ctx, 1)
		require.NoError(t, err)
		l.Tags = append(l.Tags, "leaked")

		again, err := s.Leads.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.False(t, again.HasTag("leaked"))
	})
}

func TestLeads_Facets(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		f, err := s.Leads.Facets(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, f.Industries)
		assert.IsNonDecreasing(t, f.Industries)
		assert.IsNonDecreasing(t, f.Tags)
		for _, size := range f.CompanySizes {
			assert.Contains(t, domain.CompanySizes, size)
		}
	})
}

func TestRuns_CreateForcesDraft(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		got, err := s.Runs.Create(context.Background(), domain.Run{
			Label: "New run", Status: domain.RunCompleted, FoundCount: 10, SelectedCount: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RunDraft, got.Status)
		assert.Zero(t, got.FoundCount)
		assert.Zero(t, got.SelectedCount)
		assert.Equal(t, fixedNow, got.CreatedAt)
	})
}

func TestRuns_Duplicate(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		ctx := context.Background()
		orig, err := s.Runs.Create(ctx, domain.Run{Label: "Ten found", SourceURL: "https://www.linkedin.com/search/results/people/"})
		require.NoError(t, err)
		found := 10
		orig, err = s.Runs.Update(ctx, orig.ID, domain.RunPatch{FoundCount: &found})
		require.NoError(t, err)
		require.Equal(t, 10, orig.FoundCount)

		dup, err := s.Runs.Duplicate(ctx, orig.ID)
		require.NoError(t, err)
		assert.NotEqual(t, orig.ID, dup.ID)
		assert.Equal(t, domain.RunDraft, dup.Status)
		assert.Zero(t, dup.FoundCount)
		assert.Zero(t, dup.SelectedCount)
		assert.Equal(t, "Ten found (Copy)", dup.Label)
		assert.Equal(t, orig.SourceURL, dup.SourceURL)

		_, err = s.Runs.Duplicate(ctx, 777)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestExports_CreateAndRequeue(t *testing.T) {
	backends(t, func(t *testing.T, s *Stores) {
		ctx := context.Background()
		e, err := s.Exports.Create(ctx, domain.Export{Destination: domain.DestHubSpot, RecordCount: 4, Status: domain.ExportSent})
		require.NoError(t, err)
		assert.Equal(t, domain.ExportQueued, e.Status)

		_, err = s.Exports.Create(ctx, domain.Export{Destination: "Fax"})
		assert.ErrorIs(t, err, domain.ErrInvalid)

		e, err = s.Exports.SetStatus(ctx, e.ID, domain.ExportError)
		require.NoError(t, err)
		assert.Equal(t, domain.ExportError, e.Status)

		e, err = s.Exports.Requeue(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ExportQueued, e.Status)
		assert.Equal(t, fixedNow, e.CreatedAt)
	})
}

func TestLatency_HonoursContext(t *testing.T) {
	s := NewMemory(WithLatency(Latency{GetAll: time.Hour}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Leads.GetAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New("postgres", "")
	assert.Error(t, err)
}
