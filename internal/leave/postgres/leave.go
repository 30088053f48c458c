package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/leave"
)

type LeaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) leave.Repository {
	return &LeaveRepository{db: db}
}

func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *LeaveRepository) Create(tx *gorm.DB, app *leave.Application) error {
	return tx.Create(app).Error
}

func (r *LeaveRepository) GetByID(id int64) (*leave.Application, error) {
	var app leave.Application
	err := r.db.Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *LeaveRepository) GetByIDForUpdate(tx *gorm.DB, id int64) (*leave.Application, error) {
	var app leave.Application
	err := withRowLock(tx).Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *LeaveRepository) Update(tx *gorm.DB, app *leave.Application) error {
	return tx.Save(app).Error
}

func (r *LeaveRepository) Delete(tx *gorm.DB, id int64) error {
	return tx.Where("id = ?", id).Delete(&leaveDatamodel.LeaveApplication{}).Error
}

func byYear(q *gorm.DB, year *int) *gorm.DB {
	if year == nil {
		return q
	}
	start := time.Date(*year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(*year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return q.Where("from_date >= ? AND from_date < ?", start, end)
}

func (r *LeaveRepository) ListByEmployee(employeeID int64, year *int) ([]*leave.Application, error) {
	var apps []*leave.Application
	q := r.db.Where("employee_id = ?", employeeID)
	err := byYear(q, year).Order("from_date DESC").Find(&apps).Error
	return apps, err
}

func (r *LeaveRepository) ListByEmployees(employeeIDs []int64, year *int) ([]*leave.Application, error) {
	if len(employeeIDs) == 0 {
		return []*leave.Application{}, nil
	}
	var apps []*leave.Application
	q := r.db.Where("employee_id IN ?", employeeIDs)
	err := byYear(q, year).Order("from_date DESC").Find(&apps).Error
	return apps, err
}

func (r *LeaveRepository) ListAll(year *int) ([]*leave.Application, error) {
	var apps []*leave.Application
	err := byYear(r.db, year).Order("from_date DESC").Find(&apps).Error
	return apps, err
}

func (r *LeaveRepository) ListPending() ([]*leave.Application, error) {
	var apps []*leave.Application
	err := r.db.
		Where("status = ?", leaveDatamodel.StatusPending).
		Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

// ListPendingForManager returns first-step pending requests from the
// manager's direct reports. Later steps belong to HR.
func (r *LeaveRepository) ListPendingForManager(managerID int64) ([]*leave.Application, error) {
	var apps []*leave.Application
	err := r.db.
		Joins("JOIN employees ON employees.id = leave_applications.employee_id").
		Where("employees.manager_id = ?", managerID).
		Where("leave_applications.status = ?", leaveDatamodel.StatusPending).
		Where("leave_applications.current_approval_step = ?", 1).
		Order("leave_applications.created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *LeaveRepository) HasOverlapping(employeeID int64, from, to time.Time, excludeID int64) (bool, error) {
	q := r.db.Model(&leaveDatamodel.LeaveApplication{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{leaveDatamodel.StatusPending, leaveDatamodel.StatusApproved}).
		Where("from_date <= ? AND to_date >= ?", to, from)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *LeaveRepository) HasRestrictedTaken(employeeID, leaveTypeID int64, date time.Time, excludeID int64) (bool, error) {
	q := r.db.Model(&leaveDatamodel.LeaveApplication{}).
		Where("employee_id = ? AND leave_type_id = ?", employeeID, leaveTypeID).
		Where("status IN ?", []string{leaveDatamodel.StatusPending, leaveDatamodel.StatusApproved}).
		Where("from_date = ?", time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *LeaveRepository) AppendLog(tx *gorm.DB, entry *leave.ApprovalLog) error {
	return tx.Create(entry).Error
}

func (r *LeaveRepository) ListLogs(applicationID int64) ([]*leave.ApprovalLog, error) {
	var logs []*leave.ApprovalLog
	err := r.db.
		Where("application_id = ?", applicationID).
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}

func (r *LeaveRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&leaveDatamodel.LeaveApplication{}).
		Where("status = ?", leaveDatamodel.StatusPending).
		Count(&count).Error
	return count, err
}

func (r *LeaveRepository) TakenByType(year int) ([]leave.TypeDays, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var rows []leave.TypeDays
	err := r.db.Model(&leaveDatamodel.LeaveApplication{}).
		Select("leave_types.name AS leave_type_name, SUM(leave_applications.number_of_days) AS days").
		Joins("JOIN leave_types ON leave_types.id = leave_applications.leave_type_id").
		Where("leave_applications.status = ?", leaveDatamodel.StatusApproved).
		Where("leave_applications.from_date >= ? AND leave_applications.from_date < ?", start, end).
		Group("leave_types.name").
		Order("leave_types.name ASC").
		Scan(&rows).Error
	return rows, err
}
