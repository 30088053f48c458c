package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/employee"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.Repository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) GetByID(id int64) (*employee.Employee, error) {
	var emp employee.Employee
	err := r.db.Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// ListTeamIDs returns the direct reports of a manager.
func (r *EmployeeRepository) ListTeamIDs(managerID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&employee.Employee{}).
		Where("manager_id = ?", managerID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *EmployeeRepository) ListAllIDs() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&employee.Employee{}).Pluck("id", &ids).Error
	return ids, err
}
