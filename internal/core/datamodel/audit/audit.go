package audit

import "time"

// AuditLog records a committed state transition. Written best-effort:
// a failed insert is a warning, never a rollback.
type AuditLog struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	ActorID    int64     `json:"actor_id" gorm:"not null"`
	Action     string    `json:"action" gorm:"size:100;not null"`
	EntityType string    `json:"entity_type" gorm:"size:50;not null"`
	EntityID   int64     `json:"entity_id" gorm:"not null"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
