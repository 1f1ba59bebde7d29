package exports

import (
	"math/rand"
	"sync"

	"siftin-engine/internal/domain"
)

// OutcomePolicy decides how a queued export settles. successRate is the
// chance of Sent for this attempt.
type OutcomePolicy interface {
	Outcome(successRate float64) domain.ExportStatus
}

type seededPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// SeededPolicy draws outcomes from a seeded source, so a given seed always
// yields the same sequence of Sent and Error.
func SeededPolicy(seed int64) OutcomePolicy {
	return &seededPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *seededPolicy) Outcome(successRate float64) domain.ExportStatus {
	p.mu.Lock()
	x := p.rng.Float64()
	p.mu.Unlock()
	if x < successRate {
		return domain.ExportSent
	}
	return domain.ExportError
}

type fixedPolicy domain.ExportStatus

// FixedPolicy always settles to status.
func FixedPolicy(status domain.ExportStatus) OutcomePolicy { return fixedPolicy(status) }

func (p fixedPolicy) Outcome(float64) domain.ExportStatus { return domain.ExportStatus(p) }
