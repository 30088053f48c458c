package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Accrual methods supported by the accrual calculator.
const (
	AccrualMethodMonthly = "monthly"
	AccrualMethodAnnual  = "annual"
	AccrualMethodManual  = "manual"
)

// Well-known leave type names. Compensatory-Off and Loss-of-Pay are never
// auto-accrued; Restricted-Holiday carries its own eligibility rules.
const (
	TypeEarnedLeave       = "earned_leave"
	TypeCasualLeave       = "casual_leave"
	TypeSickLeave         = "sick_leave"
	TypeCompensatoryOff   = "compensatory_off"
	TypeLossOfPay         = "loss_of_pay"
	TypeMaternityLeave    = "maternity_leave"
	TypePaternityLeave    = "paternity_leave"
	TypeBereavementLeave  = "bereavement_leave"
	TypeMarriageLeave     = "marriage_leave"
	TypeAdoptionLeave     = "adoption_leave"
	TypeRestrictedHoliday = "restricted_holiday"
)

const (
	GenderAll    = "All"
	GenderMale   = "Male"
	GenderFemale = "Female"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRecalled  = "recalled"
)

const (
	DurationFullDay = "Full Day"
	DurationHalfDay = "Half Day"
)

const (
	CreditStatusPending  = "pending"
	CreditStatusApproved = "approved"
	CreditStatusRejected = "rejected"
)

// LeaveType is the static policy record behind every ledger row and
// application. Administered by super admins.
type LeaveType struct {
	ID                     int64      `json:"id" gorm:"primaryKey"`
	Name                   string     `json:"name" gorm:"not null"`
	Abbr                   string     `json:"abbr" gorm:"size:10;not null"`
	AnnualEntitlement      int        `json:"annual_entitlement" gorm:"not null"`
	AccrualMethod          string     `json:"accrual_method" gorm:"size:50;not null"`
	CarryForward           bool       `json:"carry_forward" gorm:"default:false"`
	MaxCarryForward        *int       `json:"max_carry_forward,omitempty"`
	Encashment             bool       `json:"encashment" gorm:"default:false"`
	MaxEncashmentPerYear   *int       `json:"max_encashment_per_year,omitempty"`
	MinBalanceToEncash     *int       `json:"min_balance_to_encash,omitempty"`
	NegativeBalanceAllowed bool       `json:"negative_balance_allowed" gorm:"default:false"`
	RequiresApproval       bool       `json:"requires_approval" gorm:"default:true"`
	MinDaysInAdvance       *int       `json:"min_days_in_advance,omitempty"`
	MaxConsecutiveDays     *int       `json:"max_consecutive_days,omitempty"`
	GenderEligibility      string     `json:"gender_eligibility" gorm:"size:20;default:All"`
	RequiresDocument       bool       `json:"requires_document" gorm:"default:false"`
	ApprovalLevels         int        `json:"approval_levels" gorm:"default:1"`
	CreatedAt              time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt              time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}

// LeaveBalance is the ledger row for one (employee, leave type, year).
// Invariant after every mutation:
//
//	available = opening_balance + accrued + carry_forward - taken - pending_approval
type LeaveBalance struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	EmployeeID      int64           `json:"employee_id" gorm:"not null;uniqueIndex:idx_balance_key"`
	LeaveTypeID     int64           `json:"leave_type_id" gorm:"not null;uniqueIndex:idx_balance_key"`
	LeaveYear       int             `json:"leave_year" gorm:"not null;uniqueIndex:idx_balance_key"`
	OpeningBalance  decimal.Decimal `json:"opening_balance" gorm:"type:numeric(5,2);default:0"`
	Accrued         decimal.Decimal `json:"accrued" gorm:"type:numeric(5,2);default:0"`
	CarryForward    decimal.Decimal `json:"carry_forward" gorm:"type:numeric(5,2);default:0"`
	Taken           decimal.Decimal `json:"taken" gorm:"type:numeric(5,2);default:0"`
	PendingApproval decimal.Decimal `json:"pending_approval" gorm:"type:numeric(5,2);default:0"`
	Available       decimal.Decimal `json:"available" gorm:"type:numeric(5,2);not null"`
	Encashed        decimal.Decimal `json:"encashed" gorm:"type:numeric(5,2);default:0"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// Recompute re-derives Available from the ledger invariant.
func (b *LeaveBalance) Recompute() {
	b.Available = b.OpeningBalance.
		Add(b.Accrued).
		Add(b.CarryForward).
		Sub(b.Taken).
		Sub(b.PendingApproval)
}

type LeaveApplication struct {
	ID                  int64           `json:"id" gorm:"primaryKey"`
	EmployeeID          int64           `json:"employee_id" gorm:"not null;index"`
	LeaveTypeID         int64           `json:"leave_type_id" gorm:"not null"`
	DurationType        string          `json:"duration_type" gorm:"size:50"`
	FromDate            time.Time       `json:"from_date" gorm:"type:date;not null"`
	ToDate              time.Time       `json:"to_date" gorm:"type:date;not null"`
	NumberOfDays        decimal.Decimal `json:"number_of_days" gorm:"type:numeric(5,2);not null"`
	Reason              string          `json:"reason" gorm:"not null"`
	Attachment          *string         `json:"attachment,omitempty"`
	Status              string          `json:"status" gorm:"size:20;default:pending;not null;index"`
	CurrentApprovalStep int             `json:"current_approval_step" gorm:"default:1"`
	ApproverID          *int64          `json:"approver_id,omitempty"`
	ApprovedDate        *time.Time      `json:"approved_date,omitempty"`
	ApproverNote        *string         `json:"approver_note,omitempty"`
	CreatedAt           time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt           time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (LeaveApplication) TableName() string {
	return "leave_applications"
}

func (a *LeaveApplication) IsPending() bool {
	return a.Status == StatusPending
}

func (a *LeaveApplication) IsApproved() bool {
	return a.Status == StatusApproved
}

// LeaveApprovalLog is the append-only trail of approval-step transitions.
type LeaveApprovalLog struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	ApplicationID   int64     `json:"application_id" gorm:"not null;index"`
	ApproverID      int64     `json:"approver_id" gorm:"not null"`
	Step            int       `json:"step" gorm:"not null"`
	ResultingStatus string    `json:"resulting_status" gorm:"size:20;not null"`
	Comments        string    `json:"comments"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (LeaveApprovalLog) TableName() string {
	return "leave_approval_logs"
}

type PublicHoliday struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	HolidayDate  time.Time `json:"holiday_date" gorm:"type:date;not null;index"`
	HolidayType  string    `json:"holiday_type" gorm:"size:50;not null"`
	IsRestricted bool      `json:"is_restricted" gorm:"default:false"`
	Description  *string   `json:"description,omitempty"`
	Recurring    bool      `json:"recurring" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (PublicHoliday) TableName() string {
	return "public_holidays"
}

// LeaveCreditRequest asks for compensatory time for a day worked.
type LeaveCreditRequest struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	EmployeeID   int64      `json:"employee_id" gorm:"not null;index"`
	LeaveTypeID  int64      `json:"leave_type_id" gorm:"not null"`
	DateWorked   time.Time  `json:"date_worked" gorm:"type:date;not null"`
	Reason       string     `json:"reason" gorm:"not null"`
	Status       string     `json:"status" gorm:"size:20;default:pending;not null"`
	ApproverID   *int64     `json:"approver_id,omitempty"`
	ApprovedDate *time.Time `json:"approved_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (LeaveCreditRequest) TableName() string {
	return "leave_credit_requests"
}
