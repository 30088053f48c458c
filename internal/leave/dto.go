package leave

import (
	"time"

	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

// ApplyLeaveDTO is the request payload for creating or editing an
// application. ToDate defaults to FromDate when absent.
type ApplyLeaveDTO struct {
	LeaveTypeID  int64     `json:"leave_type_id"`
	DurationType string    `json:"duration_type"`
	FromDate     time.Time `json:"from_date"`
	ToDate       time.Time `json:"to_date"`
	Reason       string    `json:"reason"`
	Attachment   *string   `json:"attachment,omitempty"`
}

func (dto ApplyLeaveDTO) Validate() error {
	if dto.LeaveTypeID == 0 {
		return internal.NewValidationError("leave type is required", internal.ErrCodeValidationFailed)
	}
	if dto.FromDate.IsZero() {
		return internal.NewValidationError("from date is required", internal.ErrCodeValidationFailed)
	}
	if !dto.ToDate.IsZero() && dto.ToDate.Before(dto.FromDate) {
		return internal.NewValidationError("to date must not be before from date", internal.ErrCodeInvalidDateRange)
	}
	if dto.Reason == "" {
		return internal.NewValidationError("reason is required", internal.ErrCodeValidationFailed)
	}
	switch dto.DurationType {
	case leaveDatamodel.DurationFullDay, leaveDatamodel.DurationHalfDay:
	default:
		return internal.NewValidationError("duration type must be Full Day or Half Day", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (dto ApplyLeaveDTO) toOrFrom() time.Time {
	if dto.ToDate.IsZero() {
		return dto.FromDate
	}
	return dto.ToDate
}

// DecisionDTO carries the optional approver note on approve/reject.
type DecisionDTO struct {
	Note string `json:"note"`
}

// RecallDTO shortens an approved leave effective recall_date.
type RecallDTO struct {
	RecallDate time.Time `json:"recall_date"`
	Reason     string    `json:"reason"`
}

func (dto RecallDTO) Validate() error {
	if dto.RecallDate.IsZero() {
		return internal.NewValidationError("recall date is required", internal.ErrCodeValidationFailed)
	}
	if dto.Reason == "" {
		return internal.NewValidationError("recall reason is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// StatsDTO aggregates reporting numbers for a year.
type StatsDTO struct {
	TotalEmployees      int        `json:"total_employees"`
	PendingApplications int64      `json:"pending_applications"`
	TakenByType         []TypeDays `json:"taken_by_type"`
}
