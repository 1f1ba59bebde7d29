package rank

import "siftin-engine/internal/domain"

// Result is a lead's simulated relevance to a run's criteria.
type Result struct {
	Score  int      `json:"match_score"`
	Reason string   `json:"match_reason"`
	Tags   []string `json:"tags"`
}

type Scorer interface {
	Score(lead domain.Lead, criteria string) Result
}
