package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"

	"siftin-engine/internal/capture"
	"siftin-engine/internal/config"
	"siftin-engine/internal/deferred"
	"siftin-engine/internal/domain"
	"siftin-engine/internal/events"
	"siftin-engine/internal/exports"
	"siftin-engine/internal/fixtures"
	"siftin-engine/internal/help"
	"siftin-engine/internal/integrations"
	"siftin-engine/internal/query"
	"siftin-engine/internal/rank"
	"siftin-engine/internal/settings"
	"siftin-engine/internal/store"
	"siftin-engine/internal/view"
)

type harness struct {
	t        *testing.T
	h        http.Handler
	hub      *events.Hub
	stores   *store.Stores
	cfgPath  string
	shutdown atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	keyring.MockInit()

	st := store.NewMemory(store.WithLatency(store.Latency{}))
	require.NoError(t, st.Seed(context.Background(), fixtures.MustLoad()))

	cfg := config.Default()
	cfgPath, err := config.EnsureUserConfig(t.TempDir(), "")
	require.NoError(t, err)
	live := config.NewLive(cfg)

	hub := events.NewHub()
	q := deferred.New(zap.NewNop())
	t.Cleanup(q.Close)

	opts := exports.DefaultOptions()
	opts.CreateSettle = time.Hour
	opts.RetrySettle = time.Hour
	exp := exports.NewService(st.Exports, q, exports.FixedPolicy(domain.ExportSent),
		exports.NewDestinationLimiter(0, 1), hub, opts, zap.NewNop())

	wiz := capture.New(st.Runs, st.Leads, exp, rank.NewCriteriaScorer(cfg),
		capture.Options{PreviewSize: 6, Seed: 7, CreatedBy: cfg.App.CreatedBy, TTL: time.Hour}, zap.NewNop())

	content, err := help.Load()
	require.NoError(t, err)

	hs := &harness{t: t, hub: hub, stores: st, cfgPath: cfgPath}
	hs.h = NewRouter(Deps{
		Log:           zap.NewNop(),
		Hub:           hub,
		Leads:         st.Leads,
		Runs:          st.Runs,
		Exports:       exp,
		Views:         view.NewRegistry(st.Leads, 10, time.Hour),
		Captures:      wiz,
		Integrations:  integrations.NewService(zap.NewNop()),
		Settings:      settings.NewStore(),
		Help:          content,
		Live:          live,
		UserCfgPath:   cfgPath,
		LoadCfg:       func() (config.Config, error) { return config.Load(cfgPath) },
		ShutdownToken: "s3cret",
		Shutdown: func(context.Context) error {
			hs.shutdown.Add(1)
			return nil
		},
	})
	return hs
}

func (hs *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	hs.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(hs.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "127.0.0.1:50000"
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[APIError](t, rec).Error.Code
}

// drain collects the event types published so far.
func drain(ch chan string) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			var e events.Event
			if json.Unmarshal([]byte(msg), &e) == nil {
				out = append(out, e.Type)
			}
		default:
			return out
		}
	}
}

func TestHealth(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["ok"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestOverview(t *testing.T) {
	hs := newHarness(t)
	set := fixtures.MustLoad()

	rec := hs.do(http.MethodGet, "/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[Overview](t, rec)
	assert.Equal(t, len(set.Leads), got.Leads)
	assert.Equal(t, len(set.Runs), got.Runs)
	assert.Equal(t, len(set.Exports), got.Exports)
	assert.Equal(t, len(query.Apply(set.Leads, query.Filter{MinScore: 80})), got.HighMatchLeads)
}

func TestLeads_ListFiltersSortsPages(t *testing.T) {
	hs := newHarness(t)
	want := query.Sort(query.Apply(fixtures.MustLoad().Leads, query.Filter{MinScore: 80}), query.SortMatchScoreAsc)

	rec := hs.do(http.MethodGet, "/leads?min_score=80&sort=match_score_asc&page_size=5&page=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[query.Page[domain.Lead]](t, rec)
	assert.Equal(t, len(want), page.Total)
	require.Len(t, page.Items, min(5, len(want)))
	for i, l := range page.Items {
		assert.Equal(t, want[i].ID, l.ID)
	}
}

func TestLeads_BadQueryIsInvalidRequest(t *testing.T) {
	hs := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/leads?sort=random", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decode[APIError](t, rec)
	assert.Equal(t, "invalid_request", e.Error.Code)
	assert.Equal(t, "req-42", e.Error.RequestID)
}

func TestLeads_CRUDPublishesNotices(t *testing.T) {
	hs := newHarness(t)
	sub := hs.hub.Subscribe()
	defer hs.hub.Unsubscribe(sub)

	rec := hs.do(http.MethodPost, "/leads", map[string]any{
		"full_name": "Ada Lovelace", "company": "Engines Ltd", "match_score": 91,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Lead](t, rec)
	assert.Equal(t, int64(33), created.ID)
	assert.Equal(t, []string{events.TypeLeadsChanged, events.TypeNotice}, drain(sub))

	rec = hs.do(http.MethodPatch, "/leads/33", map[string]any{"add_tags": []string{"VIP"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"VIP"}, decode[domain.Lead](t, rec).Tags)

	rec = hs.do(http.MethodDelete, "/leads/33", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	drain(sub)

	rec = hs.do(http.MethodDelete, "/leads/33", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	e := decode[APIError](t, rec)
	assert.Equal(t, "not_found", e.Error.Code)
	assert.Equal(t, "Lead not found", e.Error.Message)
	assert.Equal(t, []string{events.TypeNotice}, drain(sub))

	rec = hs.do(http.MethodGet, "/leads/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodPost, "/leads", map[string]any{"full_name": "X", "match_score": 101})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeads_BulkSkipsUnknownIDs(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodPost, "/leads/bulk", map[string]any{
		"ids":   []int64{1, 2, 999},
		"patch": map[string]any{"add_tags": []string{"Q3"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["count"])

	rec = hs.do(http.MethodPost, "/leads/bulk", map[string]any{"ids": []int64{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeads_Facets(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodGet, "/leads/facets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]json.RawMessage](t, rec)
	assert.Contains(t, body, "facets")
	assert.Contains(t, body, "saved_views")
}

func TestRuns_DetailDuplicateResults(t *testing.T) {
	hs := newHarness(t)
	runs, err := hs.stores.Runs.GetAll(context.Background())
	require.NoError(t, err)
	first := runs[0]

	rec := hs.do(http.MethodGet, "/runs/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[RunDetail](t, rec)
	assert.Equal(t, first.ID, detail.Run.ID)
	assert.Len(t, detail.SampleLeads, min(sampleSize(first), 32))

	rec = hs.do(http.MethodPost, "/runs/1/duplicate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	dup := decode[domain.Run](t, rec)
	assert.Equal(t, first.Label+" (Copy)", dup.Label)
	assert.Equal(t, domain.RunDraft, dup.Status)
	assert.Zero(t, dup.FoundCount)

	rec = hs.do(http.MethodGet, "/runs/1/results?page_size=10&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[Results](t, rec)
	assert.Equal(t, 2, res.Leads.Page)
	assert.Len(t, res.Leads.Items, 10)

	rec = hs.do(http.MethodGet, "/runs/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuns_CreateUsesConfiguredAuthor(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodPost, "/runs", map[string]any{
		"label":      "  Fintech  leaders ",
		"source_url": "https://www.linkedin.com/search/results/people/?keywords=cfo&trk=x",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decode[domain.Run](t, rec)
	assert.Equal(t, "Fintech leaders", run.Label)
	assert.Equal(t, "John Doe", run.CreatedBy)
	assert.Equal(t, domain.RunDraft, run.Status)
}

func TestRuns_Preview(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(http.MethodPost, "/runs/preview", map[string]any{"criteria": "SDR managers in SaaS"})
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[capture.RunPreview](t, rec)
	assert.GreaterOrEqual(t, p.FoundCount, 50)
	assert.Less(t, p.FoundCount, 150)
	assert.NotEmpty(t, p.PreviewResults)

	rec = hs.do(http.MethodPost, "/runs/preview", map[string]any{"criteria": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaptures_Flow(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPost, "/captures", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	started := decode[captureStarted](t, rec)
	id := started.Session.ID
	assert.NotEmpty(t, started.QuickCriteria)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/criteria", map[string]any{"text": "SDR"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errCode(t, rec))

	rec = hs.do(http.MethodPost, "/captures/"+id+"/source", map[string]any{"url": "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/source",
		map[string]any{"url": "https://www.linkedin.com/search/results/people/?keywords=sdr"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = hs.do(http.MethodPost, "/captures/"+id+"/criteria", map[string]any{"text": "SDR managers in SaaS"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s := decode[capture.Session](t, rec)
	require.Len(t, s.Preview, 6)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/selection", map[string]any{"action": "all"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(http.MethodPost, "/captures/"+id+"/selection",
		map[string]any{"action": "toggle", "lead_id": s.Preview[0].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[capture.Session](t, rec).Selected, 5)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, capture.StepSave, decode[capture.Session](t, rec).Step)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/save", map[string]any{
		"label": "SaaS SDRs", "tags": []string{"Q4"}, "destination": "CSV",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[capture.Session](t, rec)
	assert.Equal(t, capture.StepDone, done.Step)
	assert.NotZero(t, done.ExportID)

	run, err := hs.stores.Runs.GetByID(context.Background(), done.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 6, run.FoundCount)
	assert.Equal(t, 5, run.SelectedCount)

	rec = hs.do(http.MethodPost, "/captures/"+id+"/step", map[string]any{"step": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = hs.do(http.MethodDelete, "/captures/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(http.MethodGet, "/captures/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViews_Flow(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPost, "/views", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	opened := decode[viewReply](t, rec)
	id := opened.ID
	assert.Equal(t, view.StatusReady, opened.View.Status)
	assert.Len(t, opened.View.Items, 10)
	assert.Equal(t, 32, opened.View.Total)

	rec = hs.do(http.MethodPut, "/views/"+id+"/page", map[string]any{"page": 99})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[viewReply](t, rec).View.Page)

	rec = hs.do(http.MethodPost, "/views/"+id+"/presets/high-match", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[viewReply](t, rec).View
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 80, v.Filter.MinScore)

	rec = hs.do(http.MethodPut, "/views/"+id+"/sort", map[string]any{"sort": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodPost, "/views/"+id+"/select-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decode[viewReply](t, rec).View
	assert.True(t, v.AllSelected)
	selected := v.Selected

	rec = hs.do(http.MethodPost, "/views/"+id+"/bulk-tag", map[string]any{"tag": "Hot"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[viewReply](t, rec).View.Selected)
	for _, lid := range selected {
		l, err := hs.stores.Leads.GetByID(context.Background(), lid)
		require.NoError(t, err)
		assert.True(t, l.HasTag("Hot"))
	}

	rec = hs.do(http.MethodPost, "/views/"+id+"/select/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hs.do(http.MethodDelete, "/views/"+id+"/filter", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 32, decode[viewReply](t, rec).View.Total)

	rec = hs.do(http.MethodDelete, "/views/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(http.MethodGet, "/views/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExports_CreateRetryDelete(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPost, "/exports", map[string]any{"destination": "Fax", "record_count": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodPost, "/exports", map[string]any{"destination": "HubSpot", "record_count": 3, "mapping_name": "HS Basic"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[domain.Export](t, rec)
	assert.Equal(t, domain.ExportQueued, e.Status)

	rec = hs.do(http.MethodPost, "/exports/1/retry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ExportQueued, decode[domain.Export](t, rec).Status)

	rec = hs.do(http.MethodDelete, "/exports/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(http.MethodGet, "/exports/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIntegrations(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPost, "/integrations/pipedrive/connect", map[string]any{"api_key": "pd-0123456789"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, integrations.StatusConnected, decode[integrations.Connector](t, rec).Status)

	rec = hs.do(http.MethodDelete, "/integrations/pipedrive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(http.MethodDelete, "/integrations/pipedrive", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = hs.do(http.MethodPost, "/integrations/myspace/connect", map[string]any{"api_key": "0123456789"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsAndHelp(t *testing.T) {
	hs := newHarness(t)

	next := settings.Default()
	next.WorkspaceName = "Growth"
	rec := hs.do(http.MethodPut, "/settings", next)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	next.PrimaryColor = "blue"
	rec = hs.do(http.MethodPut, "/settings", next)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(http.MethodGet, "/help/search?q=duplicate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "How do I avoid duplicate leads?")
}

func TestConfig_PutValidates(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodGet, "/config/path", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	abs, _ := filepath.Abs(hs.cfgPath)
	assert.Equal(t, abs, decode[map[string]string](t, rec)["path"])

	cfg := config.Default()
	cfg.App.Port = -1
	rec = hs.do(http.MethodPut, "/config", cfg)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[config.Validation](t, rec).Errors)

	cfg = config.Default()
	cfg.Views.PageSize = 50
	rec = hs.do(http.MethodPut, "/config", cfg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 50, decode[config.Config](t, rec).Views.PageSize)

	rec = hs.do(http.MethodGet, "/config", nil)
	assert.Equal(t, 50, decode[config.Config](t, rec).Views.PageSize)
}

func TestRouting_Errors(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPut, "/leads/1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", errCode(t, rec))

	rec = hs.do(http.MethodGet, "/jobs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errCode(t, rec))

	req := httptest.NewRequest(http.MethodOptions, "/leads", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	out := httptest.NewRecorder()
	hs.h.ServeHTTP(out, req)
	assert.Equal(t, http.StatusNoContent, out.Code)
	assert.Equal(t, "http://localhost:5173", out.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdown_Guards(t *testing.T) {
	hs := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/shutdown", nil)
	req.RemoteAddr = "10.0.0.7:4000"
	req.Header.Set("X-Shutdown-Token", "s3cret")
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.do(http.MethodPost, "/shutdown", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/shutdown", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	req.Header.Set("X-Shutdown-Token", "s3cret")
	rec = httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Eventually(t, func() bool { return hs.shutdown.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEvents_StreamsNotices(t *testing.T) {
	hs := newHarness(t)
	srv := httptest.NewServer(hs.h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() events.Event {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				var e events.Event
				require.NoError(t, json.Unmarshal([]byte(data), &e))
				return e
			}
		}
		t.Fatal("stream ended")
		return events.Event{}
	}

	assert.Equal(t, "ping", next().Type)
	require.Eventually(t, func() bool { return hs.hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hs.hub.Notify("", events.LevelSuccess, "hello")
	e := next()
	assert.Equal(t, events.TypeNotice, e.Type)
	var n events.Notice
	require.NoError(t, json.Unmarshal(e.Data, &n))
	assert.Equal(t, events.Notice{Level: events.LevelSuccess, Message: "hello"}, n)
}
