package worker

import (
	"context"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/roommate"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
	"github.com/nestmate-hub/nestmate-hub/pkg/logger"
	"github.com/nestmate-hub/nestmate-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM MATCH CACHE JOB
// Прогревает кеш парных оценок для недавно активных пользователей,
// чтобы первое открытие выдачи не платило за холодный расчёт.
// ══════════════════════════════════════════════════════════════════════════════

// WarmMatchCacheJob precomputes pair scores for recently active users.
type WarmMatchCacheJob struct {
	prefRepo     preference.Repository
	roommateRepo roommate.Repository
	matchCache   matching.Cache
	bus          shared.Publisher

	activeWindow time.Duration
	userLimit    int
	pairLimit    int
	logger       *logger.Logger
}

// WarmMatchCacheConfig bounds one warmup pass.
type WarmMatchCacheConfig struct {
	// ActiveWindow selects users whose profile changed this recently.
	ActiveWindow time.Duration

	// UserLimit caps how many users one pass warms.
	UserLimit int

	// PairLimit caps how many candidates are scored per user.
	PairLimit int
}

// DefaultWarmMatchCacheConfig returns sensible defaults.
func DefaultWarmMatchCacheConfig() WarmMatchCacheConfig {
	return WarmMatchCacheConfig{
		ActiveWindow: 24 * time.Hour,
		UserLimit:    50,
		PairLimit:    matching.DefaultLimit,
	}
}

// NewWarmMatchCacheJob creates the warmup job.
func NewWarmMatchCacheJob(
	prefRepo preference.Repository,
	roommateRepo roommate.Repository,
	matchCache matching.Cache,
	bus shared.Publisher,
	cfg WarmMatchCacheConfig,
	log *logger.Logger,
) *WarmMatchCacheJob {
	if cfg.ActiveWindow <= 0 {
		cfg.ActiveWindow = 24 * time.Hour
	}
	if cfg.UserLimit <= 0 {
		cfg.UserLimit = 50
	}
	if cfg.PairLimit <= 0 {
		cfg.PairLimit = matching.DefaultLimit
	}
	if log == nil {
		log = logger.Default()
	}
	return &WarmMatchCacheJob{
		prefRepo:     prefRepo,
		roommateRepo: roommateRepo,
		matchCache:   matchCache,
		bus:          bus,
		activeWindow: cfg.ActiveWindow,
		userLimit:    cfg.UserLimit,
		pairLimit:    cfg.PairLimit,
		logger:       log.With(logger.String("job", "warm_match_cache")),
	}
}

// Run executes one warmup pass.
func (j *WarmMatchCacheJob) Run(ctx context.Context) error {
	if j.matchCache == nil {
		return nil
	}

	since := time.Now().UTC().Add(-j.activeWindow)

	var userIDs []shared.UserID
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		var err error
		userIDs, err = j.prefRepo.ListRecentlyActive(ctx, since, j.userLimit)
		return err
	})
	if err != nil {
		j.logger.Error("listing recently active users failed", logger.Err(err))
		return err
	}

	var warmed int
	for _, userID := range userIDs {
		n, err := j.warmUser(ctx, userID)
		if err != nil {
			j.logger.Warn("cache warmup for user failed",
				logger.UserIDField(string(userID)),
				logger.Err(err),
			)
			continue
		}
		warmed += n
	}

	if warmed > 0 {
		j.logger.Info("match cache warmed",
			logger.Int("users", len(userIDs)),
			logger.Int("pairs", warmed),
		)
		if j.bus != nil {
			_ = j.bus.Publish(ctx, shared.NewCacheWarmedEvent(len(userIDs), warmed))
		}
	}
	return nil
}

// warmUser scores the user's top candidates and stores the results.
func (j *WarmMatchCacheJob) warmUser(ctx context.Context, userID shared.UserID) (int, error) {
	requester, err := j.prefRepo.GetProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	if requester.IsEmpty() {
		return 0, nil
	}

	weights, err := j.prefRepo.GetWeights(ctx, userID)
	if err != nil {
		return 0, err
	}

	poolIDs, err := j.roommateRepo.ListCandidatePool(ctx, userID)
	if err != nil {
		return 0, err
	}

	profiles, err := j.prefRepo.GetProfiles(ctx, poolIDs)
	if err != nil {
		return 0, err
	}

	requesterHash := requester.VersionHash()
	fingerprint := weights.Fingerprint()

	var warmed int
	for _, candidateID := range poolIDs {
		if warmed >= j.pairLimit {
			break
		}
		candidate, ok := profiles[candidateID]
		if !ok || candidate.IsEmpty() {
			continue
		}

		versionKey := matching.CacheKey(requesterHash, candidate.VersionHash(), fingerprint)
		if _, err := j.matchCache.Get(ctx, userID, candidateID, versionKey); err == nil {
			// Already warm.
			continue
		}

		res := matching.Score(requester, candidate, weights)
		res.CounterpartID = candidateID
		if err := j.matchCache.Set(ctx, userID, candidateID, versionKey, res); err != nil {
			return warmed, err
		}
		warmed++
	}
	return warmed, nil
}
