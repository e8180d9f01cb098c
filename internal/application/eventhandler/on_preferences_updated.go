// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они связывают изменения
// анкет с побочными эффектами вроде чистки кеша совместимости.
package eventhandler

import (
	"context"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
	"github.com/nestmate-hub/nestmate-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PREFERENCES UPDATED HANDLER
// Реагирует на изменение анкеты или весов: выбрасывает из кеша все
// парные оценки с участием пользователя. Версионные ключи кеша и так
// не дадут прочитать устаревшее значение; обработчик лишь освобождает
// место раньше, чем истечёт TTL.
// ═══════════════════════════════════════════════════════════════════════════

// OnPreferencesUpdatedHandler evicts cached match results for a user whose
// questionnaire input changed.
type OnPreferencesUpdatedHandler struct {
	matchCache matching.Cache
	logger     *logger.Logger
}

// NewOnPreferencesUpdatedHandler creates the handler.
func NewOnPreferencesUpdatedHandler(matchCache matching.Cache, log *logger.Logger) *OnPreferencesUpdatedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnPreferencesUpdatedHandler{
		matchCache: matchCache,
		logger:     log.With(logger.String("handler", "on_preferences_updated")),
	}
}

// EventTypes lists the events this handler subscribes to.
func (h *OnPreferencesUpdatedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventPreferencesUpdated,
		shared.EventWeightsUpdated,
	}
}

// Handle evicts the user's cached pair scores.
func (h *OnPreferencesUpdatedHandler) Handle(ctx context.Context, event shared.Event) error {
	if h.matchCache == nil {
		return nil
	}

	userID, err := shared.NewUserID(event.AggregateID())
	if err != nil {
		h.logger.Warn("event carries invalid user ID",
			logger.String("event_type", string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
		)
		return nil
	}

	if err := h.matchCache.InvalidateUser(ctx, userID); err != nil {
		h.logger.Error("match cache eviction failed",
			logger.UserIDField(string(userID)),
			logger.Err(err),
		)
		return err
	}

	h.logger.Debug("match cache evicted",
		logger.UserIDField(string(userID)),
		logger.String("event_type", string(event.EventType())),
	)
	return nil
}
