package leave

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/calendar"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/employee"
	"github.com/frahmantamala/leave-management/internal/leavetype"
)

// Validator runs the eligibility checks that precede any reservation,
// in a fixed order, short-circuiting on the first failure. Balance
// sufficiency is not checked here; that is the ledger's reserve step.
type Validator struct {
	calendar *calendar.Service
	apps     Repository
	now      func() time.Time
}

func NewValidator(cal *calendar.Service, apps Repository) *Validator {
	return &Validator{calendar: cal, apps: apps, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (v *Validator) SetClock(now func() time.Time) {
	v.now = now
}

// CheckPolicy validates the request against the leave type policy given
// the already-computed working days. excludeID skips one application in
// the overlap check so edits do not collide with themselves.
func (v *Validator) CheckPolicy(emp *employee.Employee, lt *leavetype.LeaveType, dto ApplyLeaveDTO, days decimal.Decimal, excludeID int64) error {
	if lt.Name == leaveDatamodel.TypeRestrictedHoliday {
		if err := v.checkRestrictedHoliday(emp, lt, dto, excludeID); err != nil {
			return err
		}
	}

	overlapping, err := v.apps.HasOverlapping(emp.ID, dto.FromDate, dto.toOrFrom(), excludeID)
	if err != nil {
		return err
	}
	if overlapping {
		return internal.ErrOverlappingApplication
	}

	if lt.MinDaysInAdvance != nil {
		today := truncateToDay(v.now())
		notice := int(truncateToDay(dto.FromDate).Sub(today).Hours() / 24)
		if notice < *lt.MinDaysInAdvance {
			return internal.ErrInsufficientNotice.WithDetails(map[string]int{
				"required_days": *lt.MinDaysInAdvance,
			})
		}
	}

	if lt.GenderEligibility != "" && lt.GenderEligibility != leaveDatamodel.GenderAll {
		if !strings.EqualFold(emp.Gender, lt.GenderEligibility) {
			return internal.ErrGenderIneligible
		}
	}

	if lt.RequiresDocument && (dto.Attachment == nil || *dto.Attachment == "") {
		return internal.ErrDocumentRequired
	}

	if lt.MaxConsecutiveDays != nil {
		limit := decimal.NewFromInt(int64(*lt.MaxConsecutiveDays))
		if days.GreaterThan(limit) {
			return internal.ErrExceedsConsecutiveLimit.WithDetails(map[string]int{
				"max_consecutive_days": *lt.MaxConsecutiveDays,
			})
		}
	}

	return nil
}

// checkRestrictedHoliday enforces the special rules for the optional
// holiday type: single day, the day must be a restricted holiday, and
// each restricted date is usable once per employee.
func (v *Validator) checkRestrictedHoliday(emp *employee.Employee, lt *leavetype.LeaveType, dto ApplyLeaveDTO, excludeID int64) error {
	if calendar.DateKey(dto.FromDate) != calendar.DateKey(dto.toOrFrom()) {
		return internal.ErrDuplicateRestrictedHoliday
	}

	holiday, err := v.calendar.RestrictedHolidayOn(dto.FromDate)
	if err != nil {
		return err
	}
	if holiday == nil {
		return internal.ErrDuplicateRestrictedHoliday
	}

	taken, err := v.apps.HasRestrictedTaken(emp.ID, lt.ID, dto.FromDate, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrDuplicateRestrictedHoliday
	}

	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
