package leavetype

import (
	"gorm.io/gorm"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type LeaveType = leaveDatamodel.LeaveType

// Repository defines data access for leave type policy records.
type Repository interface {
	List() ([]*LeaveType, error)
	GetByID(id int64) (*LeaveType, error)
	GetByName(name string) (*LeaveType, error)
	Create(lt *LeaveType) error
	Update(lt *LeaveType) error
	// DeleteCascade removes the type and every balance, application,
	// approval log and credit request referencing it, inside tx.
	DeleteCascade(tx *gorm.DB, id int64) error
	Count() (int64, error)
}
