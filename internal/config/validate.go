package config

import (
	"fmt"
	"net"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	// ---- app ----

	out.App.Host = strings.TrimSpace(out.App.Host)
	if out.App.Host == "" {
		out.App.Host = "127.0.0.1"
	}
	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if ip := net.ParseIP(out.App.Host); out.App.Host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		res.addWarn("app.host %q is not a loopback address; the engine has no authentication.", out.App.Host)
	}
	out.App.CreatedBy = strings.TrimSpace(out.App.CreatedBy)
	if out.App.CreatedBy == "" {
		res.addWarn("app.created_by is empty; new runs will have no owner.")
	}

	// ---- store ----

	out.Store.Backend = strings.ToLower(strings.TrimSpace(out.Store.Backend))
	if out.Store.Backend == "" {
		out.Store.Backend = "memory"
	}
	switch out.Store.Backend {
	case "memory", "sqlite":
	default:
		res.addErr("store.backend must be memory or sqlite, got %q", out.Store.Backend)
	}
	if out.Store.Backend == "sqlite" && out.Store.SQLiteDSN != "" && !strings.Contains(out.Store.SQLiteDSN, "mode=memory") {
		res.addWarn("store.sqlite_dsn is file backed; fixtures are still reseeded on every start.")
	}

	// ---- latency ----

	l := out.Latency
	for name, v := range map[string]int{
		"get_all": l.GetAll, "get_by_id": l.GetByID, "create": l.Create, "update": l.Update,
		"delete": l.Delete, "bulk_update": l.BulkUpdate, "duplicate": l.Duplicate, "retry": l.Retry,
		"search": l.Search, "export_create": l.ExportCreate, "preview": l.Preview,
	} {
		if v < 0 {
			res.addErr("latency.%s must be >= 0", name)
		} else if v > 10000 {
			res.addWarn("latency.%s is %dms; the UI will feel stuck.", name, v)
		}
	}

	// ---- views ----

	if out.Views.PageSize < 1 || out.Views.PageSize > 500 {
		res.addErr("views.page_size must be 1..500")
	}
	if out.Views.IdleTTLSeconds <= 0 {
		res.addErr("views.idle_ttl_seconds must be > 0")
	}
	if out.Views.SweepSeconds <= 0 {
		res.addErr("views.sweep_seconds must be > 0")
	} else if out.Views.IdleTTLSeconds > 0 && out.Views.SweepSeconds > out.Views.IdleTTLSeconds {
		res.addWarn("views.sweep_seconds (%d) is longer than views.idle_ttl_seconds (%d).", out.Views.SweepSeconds, out.Views.IdleTTLSeconds)
	}

	// ---- exports ----

	e := out.Exports
	if e.CreateSuccessRate < 0 || e.CreateSuccessRate > 1 {
		res.addErr("exports.create_success_rate must be 0..1")
	}
	if e.RetrySuccessRate < 0 || e.RetrySuccessRate > 1 {
		res.addErr("exports.retry_success_rate must be 0..1")
	}
	if e.CreateSettleMS < 0 || e.RetrySettleMS < 0 {
		res.addErr("exports settle delays must be >= 0")
	}
	if e.RatePerSecond < 0 {
		res.addErr("exports.rate_per_second must be >= 0")
	} else if e.RatePerSecond == 0 {
		res.addWarn("exports.rate_per_second is 0; destinations are not paced.")
	} else if e.Burst < 1 {
		res.addErr("exports.burst must be >= 1 when rate_per_second is set")
	}

	// ---- capture ----

	c := out.Capture
	if c.PreviewSize < 1 || c.PreviewSize > 100 {
		res.addErr("capture.preview_size must be 1..100")
	}
	if c.MinScore < 0 || c.MaxScore > 100 || c.MinScore > c.MaxScore {
		res.addErr("capture scores must satisfy 0 <= min_score <= max_score <= 100")
	}
	if c.SessionTTLSeconds <= 0 {
		res.addErr("capture.session_ttl_seconds must be > 0")
	}

	// ---- scoring ----

	checkRules := func(name string, rules []Rule) {
		for i := range rules {
			r := &rules[i]
			r.Tag = strings.TrimSpace(r.Tag)
			r.Any = trimList(r.Any)
			if r.Tag == "" {
				res.addErr("%s[%d].tag is required", name, i)
			}
			if len(r.Any) == 0 {
				res.addErr("%s[%d].any must have at least 1 term", name, i)
			}
			if r.Weight <= 0 {
				res.addWarn("%s[%d] (%s) has weight %d and will never raise a score.", name, i, r.Tag, r.Weight)
			}
		}
	}
	out.Scoring.TitleRules = append([]Rule(nil), out.Scoring.TitleRules...)
	out.Scoring.KeywordRules = append([]Rule(nil), out.Scoring.KeywordRules...)
	out.Scoring.Penalties = append([]Penalty(nil), out.Scoring.Penalties...)
	checkRules("scoring.title_rules", out.Scoring.TitleRules)
	checkRules("scoring.keyword_rules", out.Scoring.KeywordRules)

	for i := range out.Scoring.Penalties {
		p := &out.Scoring.Penalties[i]
		p.Reason = strings.TrimSpace(p.Reason)
		p.Any = trimList(p.Any)
		if p.Reason == "" {
			res.addErr("scoring.penalties[%d].reason is required", i)
		}
		if len(p.Any) == 0 {
			res.addErr("scoring.penalties[%d].any must have at least 1 term", i)
		}
		if p.Weight > 0 {
			res.addWarn("scoring.penalties[%d] (%s) has a positive weight.", i, p.Reason)
		}
	}

	return out, res
}
