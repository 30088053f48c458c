package ledger

import (
	"gorm.io/gorm"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type Balance = leaveDatamodel.LeaveBalance

// Repository defines data access for ledger rows. Mutating reads go
// through the ForUpdate variants so concurrent reservations on the same
// (employee, leave type, year) key serialize on the row.
type Repository interface {
	GetForUpdate(tx *gorm.DB, employeeID, leaveTypeID int64, year int) (*Balance, error)
	GetOrCreateForUpdate(tx *gorm.DB, employeeID, leaveTypeID int64, year int) (*Balance, error)
	Save(tx *gorm.DB, b *Balance) error
	Get(employeeID, leaveTypeID int64, year int) (*Balance, error)
	ListByEmployee(employeeID int64, year int) ([]*Balance, error)
	ListByEmployees(employeeIDs []int64, year int) ([]*Balance, error)
	ListByYear(year int) ([]*Balance, error)
}
