package services

import (
	"time"

	"github.com/inkwell-ai/inkwell-engine/pkg/config"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// CacheOutcome is the three-way result of resolving a cached analysis.
// Collapsing this to a binary hit/miss would either silently overcharge
// users (regenerating on a version bump) or never let them adopt schema
// improvements, so all three outcomes are first-class.
type CacheOutcome int

const (
	// CacheMiss means no reusable analysis exists; regenerate silently.
	CacheMiss CacheOutcome = iota
	// CacheHit means the cached analysis is fully valid; reuse it for free.
	CacheHit
	// CacheHitUpgradeAvailable means the cached analysis is recent and
	// well-covered but on an older payload schema: reuse it for free and
	// offer a paid regeneration onto the current schema. Never regenerate
	// automatically - that would silently charge the user.
	CacheHitUpgradeAvailable
)

// CacheResolver computes the validity predicate for a user's cached
// aggregate analysis. Validity is always derived here at read time, never
// stored as a boolean.
type CacheResolver struct {
	cfg config.CacheConfig
}

// NewCacheResolver creates a CacheResolver with the given validity policy.
func NewCacheResolver(cfg config.CacheConfig) *CacheResolver {
	return &CacheResolver{cfg: cfg}
}

// Resolve classifies the cached analysis against the current entry set.
// totalEligible is the count of currently eligible entries. All of age,
// coverage, and schema version must hold for a plain hit; age or coverage
// failing is a miss; only the version failing yields the upgrade offer.
func (r *CacheResolver) Resolve(cached *models.PatternAnalysis, totalEligible int, now time.Time) CacheOutcome {
	if cached == nil {
		return CacheMiss
	}

	if now.Sub(cached.CreatedAt) >= r.cfg.MaxAge() {
		return CacheMiss
	}

	if totalEligible <= 0 {
		return CacheMiss
	}
	coverage := float64(cached.EntriesCovered) / float64(totalEligible)
	if coverage < r.cfg.CoverageFloor {
		return CacheMiss
	}

	if cached.SchemaVersion != r.cfg.CurrentSchemaVersion {
		return CacheHitUpgradeAvailable
	}

	return CacheHit
}
