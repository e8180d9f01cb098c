package worker

import (
	"context"
	"time"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/roommate"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
	"github.com/nestmate-hub/nestmate-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE PROPOSALS JOB
// Закрывает предложения, по которым истекло окно ответа. Чтение по
// требованию и так видит просрочку; фоновая зачистка приводит хранимое
// состояние в соответствие и шлёт событие об истечении.
// ══════════════════════════════════════════════════════════════════════════════

// ExpireProposalsJob sweeps pending proposals past their response window.
type ExpireProposalsJob struct {
	repo      roommate.Repository
	bus       shared.Publisher
	batchSize int
	logger    *logger.Logger
}

// NewExpireProposalsJob creates the sweep job.
func NewExpireProposalsJob(repo roommate.Repository, bus shared.Publisher, batchSize int, log *logger.Logger) *ExpireProposalsJob {
	if batchSize <= 0 {
		batchSize = 100
	}
	if log == nil {
		log = logger.Default()
	}
	return &ExpireProposalsJob{
		repo:      repo,
		bus:       bus,
		batchSize: batchSize,
		logger:    log.With(logger.String("job", "expire_proposals")),
	}
}

// Run executes one sweep pass.
func (j *ExpireProposalsJob) Run(ctx context.Context) error {
	expired, err := j.repo.ListExpiredPending(ctx, time.Now().UTC(), j.batchSize)
	if err != nil {
		j.logger.Error("listing expired proposals failed", logger.Err(err))
		return err
	}

	var closed int
	for _, p := range expired {
		if err := p.MarkExpired(); err != nil {
			// Finalized between the query and this pass.
			continue
		}
		if err := j.repo.UpdateProposal(ctx, p); err != nil {
			j.logger.Error("persisting expired proposal failed",
				logger.ProposalField(p.ID),
				logger.Err(err),
			)
			continue
		}
		closed++

		if j.bus != nil {
			_ = j.bus.Publish(ctx, shared.NewProposalExpiredEvent(
				p.ID, string(p.InitiatorID), string(p.CandidateID),
			))
		}
	}

	if closed > 0 {
		j.logger.Info("expired proposals closed", logger.Int("count", closed))
	}
	return nil
}
