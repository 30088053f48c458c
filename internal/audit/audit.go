package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	auditDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/leave-management/internal/core/events"
)

type AuditLog = auditDatamodel.AuditLog

// Repository defines data access for audit log entries.
type Repository interface {
	Create(entry *AuditLog) error
	ListByEntity(entityType string, entityID int64) ([]*AuditLog, error)
}

// Recorder subscribes to leave events and persists one audit row per
// committed transition. Best-effort by contract: the bus already
// swallows handler errors, so a failed insert costs a warning and
// nothing else.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Register attaches the recorder to every leave event type.
func (r *Recorder) Register(bus *events.EventBus) {
	for _, eventType := range []string{
		events.LeaveApplied,
		events.LeaveApproved,
		events.LeaveStepApproved,
		events.LeaveRejected,
		events.LeaveCancelled,
		events.LeaveRecalled,
		events.LeaveUpdated,
		events.CreditRequested,
		events.CreditApproved,
		events.CreditRejected,
		events.LeaveTypeDeleted,
		events.AccrualRefreshed,
	} {
		bus.Subscribe(eventType, r.record)
	}
}

func (r *Recorder) record(ctx context.Context, event events.Event) error {
	data, _ := event.Payload().(map[string]interface{})

	entry := &AuditLog{
		Action:     event.EventType(),
		ActorID:    toInt64(data["actor_id"]),
		EntityType: toString(data["entity_type"]),
		EntityID:   toInt64(data["entity_id"]),
	}

	if details, err := json.Marshal(data); err == nil {
		entry.Details = string(details)
	}

	if err := r.repo.Create(entry); err != nil {
		r.logger.Warn("audit write failed",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"error", err)
		return err
	}
	return nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}
