package config

import (
	_ "embed"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config.yml
var defaultYAML []byte

type Rule struct {
	Tag    string   `yaml:"tag" json:"tag"`
	Weight int      `yaml:"weight" json:"weight"`
	Any    []string `yaml:"any" json:"any"`
}

type Penalty struct {
	Reason string   `yaml:"reason" json:"reason"`
	Weight int      `yaml:"weight" json:"weight"`
	Any    []string `yaml:"any" json:"any"`
}

// LatencyMS is the simulated delay per fixture operation, in milliseconds.
type LatencyMS struct {
	GetAll       int `yaml:"get_all" json:"get_all"`
	GetByID      int `yaml:"get_by_id" json:"get_by_id"`
	Create       int `yaml:"create" json:"create"`
	Update       int `yaml:"update" json:"update"`
	Delete       int `yaml:"delete" json:"delete"`
	BulkUpdate   int `yaml:"bulk_update" json:"bulk_update"`
	Duplicate    int `yaml:"duplicate" json:"duplicate"`
	Retry        int `yaml:"retry" json:"retry"`
	Search       int `yaml:"search" json:"search"`
	ExportCreate int `yaml:"export_create" json:"export_create"`
	Preview      int `yaml:"preview" json:"preview"`
}

type Config struct {
	App struct {
		Host      string `yaml:"host" json:"host"`
		Port      int    `yaml:"port" json:"port"`
		DataDir   string `yaml:"data_dir" json:"data_dir"`
		CreatedBy string `yaml:"created_by" json:"created_by"`
		Dev       bool   `yaml:"dev" json:"dev"`
	} `yaml:"app" json:"app"`

	Store struct {
		Backend   string `yaml:"backend" json:"backend"`
		SQLiteDSN string `yaml:"sqlite_dsn" json:"sqlite_dsn"`
	} `yaml:"store" json:"store"`

	Latency LatencyMS `yaml:"latency" json:"latency"`

	Views struct {
		PageSize       int `yaml:"page_size" json:"page_size"`
		IdleTTLSeconds int `yaml:"idle_ttl_seconds" json:"idle_ttl_seconds"`
		SweepSeconds   int `yaml:"sweep_seconds" json:"sweep_seconds"`
	} `yaml:"views" json:"views"`

	Exports struct {
		Seed              int64   `yaml:"seed" json:"seed"`
		CreateSuccessRate float64 `yaml:"create_success_rate" json:"create_success_rate"`
		RetrySuccessRate  float64 `yaml:"retry_success_rate" json:"retry_success_rate"`
		CreateSettleMS    int     `yaml:"create_settle_ms" json:"create_settle_ms"`
		RetrySettleMS     int     `yaml:"retry_settle_ms" json:"retry_settle_ms"`
		RatePerSecond     float64 `yaml:"rate_per_second" json:"rate_per_second"`
		Burst             int     `yaml:"burst" json:"burst"`
	} `yaml:"exports" json:"exports"`

	Capture struct {
		PreviewSize       int   `yaml:"preview_size" json:"preview_size"`
		Seed              int64 `yaml:"seed" json:"seed"`
		MinScore          int   `yaml:"min_score" json:"min_score"`
		MaxScore          int   `yaml:"max_score" json:"max_score"`
		SessionTTLSeconds int   `yaml:"session_ttl_seconds" json:"session_ttl_seconds"`
	} `yaml:"capture" json:"capture"`

	Scoring struct {
		TitleRules   []Rule    `yaml:"title_rules" json:"title_rules"`
		KeywordRules []Rule    `yaml:"keyword_rules" json:"keyword_rules"`
		Penalties    []Penalty `yaml:"penalties" json:"penalties"`
	} `yaml:"scoring" json:"scoring"`

	Integrations struct {
		UseSystemKeyring bool `yaml:"use_system_keyring" json:"use_system_keyring"`
	} `yaml:"integrations" json:"integrations"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes b over the built-in defaults, so omitted keys keep their default.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the bundled config.yml.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic("config: bundled config.yml: " + err.Error())
	}
	return cfg
}

// MS converts a millisecond setting.
func MS(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (c Config) Addr() string {
	return net.JoinHostPort(c.App.Host, strconv.Itoa(c.App.Port))
}

func (c Config) ViewTTL() time.Duration    { return time.Duration(c.Views.IdleTTLSeconds) * time.Second }
func (c Config) SweepEvery() time.Duration { return time.Duration(c.Views.SweepSeconds) * time.Second }
func (c Config) CaptureTTL() time.Duration {
	return time.Duration(c.Capture.SessionTTLSeconds) * time.Second
}
func (c Config) CreateSettle() time.Duration { return MS(c.Exports.CreateSettleMS) }
func (c Config) RetrySettle() time.Duration  { return MS(c.Exports.RetrySettleMS) }
