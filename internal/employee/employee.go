package employee

import (
	employeeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/employee"
)

type Employee = employeeDatamodel.Employee

// Repository is the read-only view of the employee directory the leave
// engine needs: joining dates for accrual, gender for eligibility and
// the reporting line for team queries.
type Repository interface {
	GetByID(id int64) (*Employee, error)
	ListTeamIDs(managerID int64) ([]int64, error)
	ListAllIDs() ([]int64, error)
}
