package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published after committed leave transitions.
const (
	LeaveApplied      = "leave.applied"
	LeaveApproved     = "leave.approved"
	LeaveStepApproved = "leave.step_approved"
	LeaveRejected     = "leave.rejected"
	LeaveCancelled    = "leave.cancelled"
	LeaveRecalled     = "leave.recalled"
	LeaveUpdated      = "leave.updated"
	CreditRequested   = "leave.credit_requested"
	CreditApproved    = "leave.credit_approved"
	CreditRejected    = "leave.credit_rejected"
	LeaveTypeDeleted  = "leave.type_deleted"
	AccrualRefreshed  = "leave.accrual_refreshed"
)

// NewLeaveEvent builds a BaseEvent for a leave transition with the actor
// and entity recorded in the payload for the audit recorder.
func NewLeaveEvent(eventType string, actorID int64, entityType string, entityID int64, details map[string]interface{}) BaseEvent {
	data := map[string]interface{}{
		"actor_id":    actorID,
		"entity_type": entityType,
		"entity_id":   entityID,
	}
	for k, v := range details {
		data[k] = v
	}
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
