// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Preference events
	EventPreferencesUpdated EventType = "preference.updated"
	EventWeightsUpdated     EventType = "preference.weights_updated"

	// Matching events
	EventMatchComputed EventType = "matching.match_computed"
	EventPoolRanked    EventType = "matching.pool_ranked"

	// Roommate events
	EventProposalCreated   EventType = "roommate.proposal_created"
	EventProposalResponded EventType = "roommate.proposal_responded"
	EventProposalExpired   EventType = "roommate.proposal_expired"
	EventUserBlocked       EventType = "roommate.user_blocked"

	// System events
	EventCacheWarmed EventType = "system.cache_warmed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// Publisher delivers domain events to interested subscribers. Publishing
// is best-effort from the caller's point of view: command handlers treat
// a failed publish as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Preference Events
// ═══════════════════════════════════════════════════════════════════════════

// PreferencesUpdatedEvent is published when a user changes any preference
// field. Cached compatibility results involving the user become stale the
// moment this event is emitted (the version hash changes with it).
type PreferencesUpdatedEvent struct {
	BaseEvent
	UserID        string   `json:"user_id"`
	ChangedFields []string `json:"changed_fields"`
	VersionHash   string   `json:"version_hash"`
}

// NewPreferencesUpdatedEvent creates a PreferencesUpdatedEvent.
func NewPreferencesUpdatedEvent(userID string, changedFields []string, versionHash string) PreferencesUpdatedEvent {
	return PreferencesUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventPreferencesUpdated, userID),
		UserID:        userID,
		ChangedFields: changedFields,
		VersionHash:   versionHash,
	}
}

// Payload implements Event interface.
func (e PreferencesUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"changed_fields": e.ChangedFields,
		"version_hash":   e.VersionHash,
	}
}

// WeightsUpdatedEvent is published when a user changes question weights.
type WeightsUpdatedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// NewWeightsUpdatedEvent creates a WeightsUpdatedEvent.
func NewWeightsUpdatedEvent(userID string) WeightsUpdatedEvent {
	return WeightsUpdatedEvent{
		BaseEvent: NewBaseEvent(EventWeightsUpdated, userID),
		UserID:    userID,
	}
}

// Payload implements Event interface.
func (e WeightsUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Matching Events
// ═══════════════════════════════════════════════════════════════════════════

// MatchComputedEvent is published when a pairwise compatibility score is
// computed fresh (cache misses only).
type MatchComputedEvent struct {
	BaseEvent
	RequesterID  string `json:"requester_id"`
	CandidateID  string `json:"candidate_id"`
	OverallScore int    `json:"overall_score"`
}

// NewMatchComputedEvent creates a MatchComputedEvent.
func NewMatchComputedEvent(requesterID, candidateID string, overallScore int) MatchComputedEvent {
	return MatchComputedEvent{
		BaseEvent:    NewBaseEvent(EventMatchComputed, requesterID),
		RequesterID:  requesterID,
		CandidateID:  candidateID,
		OverallScore: overallScore,
	}
}

// Payload implements Event interface.
func (e MatchComputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"requester_id":  e.RequesterID,
		"candidate_id":  e.CandidateID,
		"overall_score": e.OverallScore,
	}
}

// PoolRankedEvent is published after a ranking run over a candidate pool.
type PoolRankedEvent struct {
	BaseEvent
	RequesterID string `json:"requester_id"`
	PoolSize    int    `json:"pool_size"`
	ResultCount int    `json:"result_count"`
}

// NewPoolRankedEvent creates a PoolRankedEvent.
func NewPoolRankedEvent(requesterID string, poolSize, resultCount int) PoolRankedEvent {
	return PoolRankedEvent{
		BaseEvent:   NewBaseEvent(EventPoolRanked, requesterID),
		RequesterID: requesterID,
		PoolSize:    poolSize,
		ResultCount: resultCount,
	}
}

// Payload implements Event interface.
func (e PoolRankedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"requester_id": e.RequesterID,
		"pool_size":    e.PoolSize,
		"result_count": e.ResultCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Roommate Events
// ═══════════════════════════════════════════════════════════════════════════

// ProposalCreatedEvent is published when a roommate proposal is created.
type ProposalCreatedEvent struct {
	BaseEvent
	ProposalID  string `json:"proposal_id"`
	InitiatorID string `json:"initiator_id"`
	CandidateID string `json:"candidate_id"`
	Score       int    `json:"score"`
}

// NewProposalCreatedEvent creates a ProposalCreatedEvent.
func NewProposalCreatedEvent(proposalID, initiatorID, candidateID string, score int) ProposalCreatedEvent {
	return ProposalCreatedEvent{
		BaseEvent:   NewBaseEvent(EventProposalCreated, proposalID),
		ProposalID:  proposalID,
		InitiatorID: initiatorID,
		CandidateID: candidateID,
		Score:       score,
	}
}

// Payload implements Event interface.
func (e ProposalCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"proposal_id":  e.ProposalID,
		"initiator_id": e.InitiatorID,
		"candidate_id": e.CandidateID,
		"score":        e.Score,
	}
}

// ProposalRespondedEvent is published when a participant accepts or
// declines a proposal.
type ProposalRespondedEvent struct {
	BaseEvent
	ProposalID string `json:"proposal_id"`
	UserID     string `json:"user_id"`
	Accepted   bool   `json:"accepted"`
	Status     string `json:"status"`
}

// NewProposalRespondedEvent creates a ProposalRespondedEvent.
func NewProposalRespondedEvent(proposalID, userID string, accepted bool, status string) ProposalRespondedEvent {
	return ProposalRespondedEvent{
		BaseEvent:  NewBaseEvent(EventProposalResponded, proposalID),
		ProposalID: proposalID,
		UserID:     userID,
		Accepted:   accepted,
		Status:     status,
	}
}

// Payload implements Event interface.
func (e ProposalRespondedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"proposal_id": e.ProposalID,
		"user_id":     e.UserID,
		"accepted":    e.Accepted,
		"status":      e.Status,
	}
}

// ProposalExpiredEvent is published when the sweep closes a proposal
// whose response window passed.
type ProposalExpiredEvent struct {
	BaseEvent
	ProposalID  string `json:"proposal_id"`
	InitiatorID string `json:"initiator_id"`
	CandidateID string `json:"candidate_id"`
}

// NewProposalExpiredEvent creates a ProposalExpiredEvent.
func NewProposalExpiredEvent(proposalID, initiatorID, candidateID string) ProposalExpiredEvent {
	return ProposalExpiredEvent{
		BaseEvent:   NewBaseEvent(EventProposalExpired, proposalID),
		ProposalID:  proposalID,
		InitiatorID: initiatorID,
		CandidateID: candidateID,
	}
}

// Payload implements Event interface.
func (e ProposalExpiredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"proposal_id":  e.ProposalID,
		"initiator_id": e.InitiatorID,
		"candidate_id": e.CandidateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// CacheWarmedEvent is published after a warmup pass precomputes pair
// scores for recently active users.
type CacheWarmedEvent struct {
	BaseEvent
	Users int `json:"users"`
	Pairs int `json:"pairs"`
}

// NewCacheWarmedEvent creates a CacheWarmedEvent.
func NewCacheWarmedEvent(users, pairs int) CacheWarmedEvent {
	return CacheWarmedEvent{
		BaseEvent: NewBaseEvent(EventCacheWarmed, "system"),
		Users:     users,
		Pairs:     pairs,
	}
}

// Payload implements Event interface.
func (e CacheWarmedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"users": e.Users,
		"pairs": e.Pairs,
	}
}

// UserBlockedEvent is published when a block is stored.
type UserBlockedEvent struct {
	BaseEvent
	BlockerID string `json:"blocker_id"`
	BlockedID string `json:"blocked_id"`
}

// NewUserBlockedEvent creates a UserBlockedEvent.
func NewUserBlockedEvent(blockerID, blockedID string) UserBlockedEvent {
	return UserBlockedEvent{
		BaseEvent: NewBaseEvent(EventUserBlocked, blockerID),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
}

// Payload implements Event interface.
func (e UserBlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"blocker_id": e.BlockerID,
		"blocked_id": e.BlockedID,
	}
}
