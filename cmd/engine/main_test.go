package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siftin-engine/internal/config"
	"siftin-engine/internal/domain"
	"siftin-engine/internal/fixtures"
	"siftin-engine/internal/httpapi"
	"siftin-engine/internal/query"
	"siftin-engine/internal/rank"
)

func resetLeadsFlags(t *testing.T) {
	t.Helper()
	leadsFlags.search, leadsFlags.industry, leadsFlags.location = "", "", ""
	leadsFlags.emailStatus, leadsFlags.connection = "", ""
	leadsFlags.tags = nil
	leadsFlags.minScore = 0
	leadsFlags.sort = string(query.DefaultSort)
	leadsFlags.page, leadsFlags.pageSize = 1, query.DefaultPageSize
}

func TestRunLeads(t *testing.T) {
	resetLeadsFlags(t)
	t.Cleanup(func() { resetLeadsFlags(t) })
	leadsFlags.minScore = 80
	leadsFlags.sort = string(query.SortMatchScoreAsc)
	leadsFlags.pageSize = 3

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, runLeads(cmd, nil))

	var page query.Page[domain.Lead]
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	want := query.Sort(query.Apply(fixtures.MustLoad().Leads, query.Filter{MinScore: 80}), query.SortMatchScoreAsc)
	assert.Equal(t, len(want), page.Total)
	require.Len(t, page.Items, 3)
	for i, l := range page.Items {
		assert.Equal(t, want[i].ID, l.ID)
	}
}

func TestRunLeads_RejectsUnknownSort(t *testing.T) {
	resetLeadsFlags(t)
	t.Cleanup(func() { resetLeadsFlags(t) })
	leadsFlags.sort = "shuffle"

	err := runLeads(&cobra.Command{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestConfigCommands(t *testing.T) {
	dataDir = t.TempDir()
	t.Cleanup(func() { dataDir = defaultDataDir() })

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, runConfigPath(cmd, nil))
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), strings.TrimSpace(out.String()))

	out.Reset()
	require.NoError(t, runConfigValidate(cmd, nil))
	var res config.Validation
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Empty(t, res.Errors)
}

func TestLoadConfig_AppliesEnv(t *testing.T) {
	path, err := userConfigPath(t.TempDir())
	require.NoError(t, err)

	env := map[string]string{"SIFTIN_PORT": "40001", "SIFTIN_STORE_BACKEND": "sqlite"}
	cfg, res, err := loadConfig(path, func(k string) string { return env[k] })
	require.NoError(t, err)
	require.True(t, res.OK(), res.Errors)
	assert.Equal(t, 40001, cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)

	env["SIFTIN_PORT"] = "eighty"
	_, _, err = loadConfig(path, func(k string) string { return env[k] })
	assert.Error(t, err)
}

func TestLatencyFrom(t *testing.T) {
	l := latencyFrom(config.LatencyMS{GetAll: 300, Preview: 2000})
	assert.Equal(t, 300*time.Millisecond, l.GetAll)
	assert.Equal(t, 2*time.Second, l.Preview)
	assert.Zero(t, l.Delete)
}

func TestNewEngine_Wires(t *testing.T) {
	cfg := config.Default()
	cfg.Latency = config.LatencyMS{}
	path := filepath.Join(t.TempDir(), "config.yml")

	eng, err := newEngine(context.Background(), cfg, path, zap.NewNop())
	require.NoError(t, err)
	defer eng.close()

	h := httpapi.NewRouter(eng.deps)

	for _, p := range []string{"/health", "/overview", "/leads", "/runs", "/exports", "/integrations", "/settings", "/help", "/config"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}

	require.NoError(t, eng.sweep(context.Background()))
}

func TestLiveScorer_FollowsConfig(t *testing.T) {
	cfg := config.Default()
	live := config.NewLive(cfg)
	lead := fixtures.MustLoad().Leads[0]

	s := liveScorer{live: live}
	assert.Equal(t, rank.NewCriteriaScorer(cfg).Score(lead, "SDR manager"), s.Score(lead, "SDR manager"))

	cfg.Capture.MinScore, cfg.Capture.MaxScore = 10, 10
	live.Set(cfg)
	assert.Equal(t, rank.NewCriteriaScorer(cfg).Score(lead, "SDR manager"), s.Score(lead, "SDR manager"))
}
