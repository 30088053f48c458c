package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type Application = leaveDatamodel.LeaveApplication
type ApprovalLog = leaveDatamodel.LeaveApprovalLog

// TypeDays is one row of the taken-by-type statistic.
type TypeDays struct {
	LeaveTypeName string          `json:"leave_type_name"`
	Days          decimal.Decimal `json:"days"`
}

// Repository defines data access for applications and their approval trail.
type Repository interface {
	Create(tx *gorm.DB, app *Application) error
	GetByID(id int64) (*Application, error)
	GetByIDForUpdate(tx *gorm.DB, id int64) (*Application, error)
	Update(tx *gorm.DB, app *Application) error
	Delete(tx *gorm.DB, id int64) error

	ListByEmployee(employeeID int64, year *int) ([]*Application, error)
	ListByEmployees(employeeIDs []int64, year *int) ([]*Application, error)
	ListAll(year *int) ([]*Application, error)
	ListPending() ([]*Application, error)
	ListPendingForManager(managerID int64) ([]*Application, error)

	// HasOverlapping reports a pending or approved application for the
	// employee whose [from,to] intersects the given closed interval.
	HasOverlapping(employeeID int64, from, to time.Time, excludeID int64) (bool, error)
	// HasRestrictedTaken reports a pending or approved application of
	// the given type on exactly the given date, skipping excludeID so
	// edits do not collide with their own row.
	HasRestrictedTaken(employeeID, leaveTypeID int64, date time.Time, excludeID int64) (bool, error)

	AppendLog(tx *gorm.DB, entry *ApprovalLog) error
	ListLogs(applicationID int64) ([]*ApprovalLog, error)

	CountPending() (int64, error)
	TakenByType(year int) ([]TypeDays, error)
}
