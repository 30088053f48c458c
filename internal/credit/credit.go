package credit

import (
	"time"

	"gorm.io/gorm"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type CreditRequest = leaveDatamodel.LeaveCreditRequest

// Repository defines data access for compensatory credit requests.
type Repository interface {
	Create(req *CreditRequest) error
	GetByID(id int64) (*CreditRequest, error)
	GetByIDForUpdate(tx *gorm.DB, id int64) (*CreditRequest, error)
	Update(tx *gorm.DB, req *CreditRequest) error

	ListByEmployee(employeeID int64) ([]*CreditRequest, error)
	ListPending() ([]*CreditRequest, error)

	// HasActiveForDate reports a pending or approved request by the
	// employee for the same date worked.
	HasActiveForDate(employeeID int64, dateWorked time.Time) (bool, error)
}
