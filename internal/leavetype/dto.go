package leavetype

import (
	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

// LeaveTypeDTO is the admin payload for creating or updating a policy.
type LeaveTypeDTO struct {
	Name                   string `json:"name"`
	Abbr                   string `json:"abbr"`
	AnnualEntitlement      int    `json:"annual_entitlement"`
	AccrualMethod          string `json:"accrual_method"`
	CarryForward           bool   `json:"carry_forward"`
	MaxCarryForward        *int   `json:"max_carry_forward,omitempty"`
	Encashment             bool   `json:"encashment"`
	MaxEncashmentPerYear   *int   `json:"max_encashment_per_year,omitempty"`
	MinBalanceToEncash     *int   `json:"min_balance_to_encash,omitempty"`
	NegativeBalanceAllowed bool   `json:"negative_balance_allowed"`
	RequiresApproval       bool   `json:"requires_approval"`
	MinDaysInAdvance       *int   `json:"min_days_in_advance,omitempty"`
	MaxConsecutiveDays     *int   `json:"max_consecutive_days,omitempty"`
	GenderEligibility      string `json:"gender_eligibility"`
	RequiresDocument       bool   `json:"requires_document"`
	ApprovalLevels         int    `json:"approval_levels"`
}

func (dto LeaveTypeDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	if dto.Abbr == "" {
		return internal.NewValidationError("abbreviation is required", internal.ErrCodeValidationFailed)
	}
	if dto.AnnualEntitlement < 0 {
		return internal.NewValidationError("annual entitlement cannot be negative", internal.ErrCodeValidationFailed)
	}
	switch dto.AccrualMethod {
	case leaveDatamodel.AccrualMethodMonthly, leaveDatamodel.AccrualMethodAnnual, leaveDatamodel.AccrualMethodManual:
	default:
		return internal.NewValidationError("accrual method must be monthly, annual or manual", internal.ErrCodeValidationFailed)
	}
	switch dto.GenderEligibility {
	case "", leaveDatamodel.GenderAll, leaveDatamodel.GenderMale, leaveDatamodel.GenderFemale:
	default:
		return internal.NewValidationError("gender eligibility must be All, Male or Female", internal.ErrCodeValidationFailed)
	}
	if dto.ApprovalLevels < 1 {
		return internal.NewValidationError("approval levels must be at least 1", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (dto LeaveTypeDTO) toModel() *LeaveType {
	lt := &LeaveType{}
	dto.apply(lt)
	return lt
}

func (dto LeaveTypeDTO) apply(lt *LeaveType) {
	lt.Name = dto.Name
	lt.Abbr = dto.Abbr
	lt.AnnualEntitlement = dto.AnnualEntitlement
	lt.AccrualMethod = dto.AccrualMethod
	lt.CarryForward = dto.CarryForward
	lt.MaxCarryForward = dto.MaxCarryForward
	lt.Encashment = dto.Encashment
	lt.MaxEncashmentPerYear = dto.MaxEncashmentPerYear
	lt.MinBalanceToEncash = dto.MinBalanceToEncash
	lt.NegativeBalanceAllowed = dto.NegativeBalanceAllowed
	lt.RequiresApproval = dto.RequiresApproval
	lt.MinDaysInAdvance = dto.MinDaysInAdvance
	lt.MaxConsecutiveDays = dto.MaxConsecutiveDays
	lt.GenderEligibility = dto.GenderEligibility
	if lt.GenderEligibility == "" {
		lt.GenderEligibility = leaveDatamodel.GenderAll
	}
	lt.RequiresDocument = dto.RequiresDocument
	lt.ApprovalLevels = dto.ApprovalLevels
}
