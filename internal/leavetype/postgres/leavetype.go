package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/leavetype"
)

type LeaveTypeRepository struct {
	db *gorm.DB
}

func NewLeaveTypeRepository(db *gorm.DB) leavetype.Repository {
	return &LeaveTypeRepository{db: db}
}

func (r *LeaveTypeRepository) List() ([]*leavetype.LeaveType, error) {
	var types []*leavetype.LeaveType
	err := r.db.Order("id ASC").Find(&types).Error
	return types, err
}

func (r *LeaveTypeRepository) GetByID(id int64) (*leavetype.LeaveType, error) {
	var lt leavetype.LeaveType
	err := r.db.Where("id = ?", id).First(&lt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLeaveTypeNotFound
		}
		return nil, err
	}
	return &lt, nil
}

func (r *LeaveTypeRepository) GetByName(name string) (*leavetype.LeaveType, error) {
	var lt leavetype.LeaveType
	err := r.db.Where("name = ?", name).First(&lt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLeaveTypeNotFound
		}
		return nil, err
	}
	return &lt, nil
}

func (r *LeaveTypeRepository) Create(lt *leavetype.LeaveType) error {
	return r.db.Create(lt).Error
}

func (r *LeaveTypeRepository) Update(lt *leavetype.LeaveType) error {
	return r.db.Save(lt).Error
}

// DeleteCascade hard-deletes the type and everything referencing it.
// Approval logs go first so no orphan rows survive the applications.
func (r *LeaveTypeRepository) DeleteCascade(tx *gorm.DB, id int64) error {
	var appIDs []int64
	if err := tx.Model(&leaveDatamodel.LeaveApplication{}).
		Where("leave_type_id = ?", id).
		Pluck("id", &appIDs).Error; err != nil {
		return err
	}

	if len(appIDs) > 0 {
		if err := tx.Where("application_id IN ?", appIDs).
			Delete(&leaveDatamodel.LeaveApprovalLog{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("leave_type_id = ?", id).
		Delete(&leaveDatamodel.LeaveApplication{}).Error; err != nil {
		return err
	}
	if err := tx.Where("leave_type_id = ?", id).
		Delete(&leaveDatamodel.LeaveBalance{}).Error; err != nil {
		return err
	}
	if err := tx.Where("leave_type_id = ?", id).
		Delete(&leaveDatamodel.LeaveCreditRequest{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&leaveDatamodel.LeaveType{}).Error
}

func (r *LeaveTypeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&leaveDatamodel.LeaveType{}).Count(&count).Error
	return count, err
}
