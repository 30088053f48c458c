package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/credit"
)

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) credit.Repository {
	return &CreditRepository{db: db}
}

func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *CreditRepository) Create(req *credit.CreditRequest) error {
	return r.db.Create(req).Error
}

func (r *CreditRepository) GetByID(id int64) (*credit.CreditRequest, error) {
	var req credit.CreditRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCreditRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *CreditRepository) GetByIDForUpdate(tx *gorm.DB, id int64) (*credit.CreditRequest, error) {
	var req credit.CreditRequest
	err := withRowLock(tx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCreditRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *CreditRepository) Update(tx *gorm.DB, req *credit.CreditRequest) error {
	return tx.Save(req).Error
}

func (r *CreditRepository) ListByEmployee(employeeID int64) ([]*credit.CreditRequest, error) {
	var reqs []*credit.CreditRequest
	err := r.db.
		Where("employee_id = ?", employeeID).
		Order("date_worked DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *CreditRepository) ListPending() ([]*credit.CreditRequest, error) {
	var reqs []*credit.CreditRequest
	err := r.db.
		Where("status = ?", leave.CreditStatusPending).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *CreditRepository) HasActiveForDate(employeeID int64, dateWorked time.Time) (bool, error) {
	day := time.Date(dateWorked.Year(), dateWorked.Month(), dateWorked.Day(), 0, 0, 0, 0, time.UTC)
	var count int64
	err := r.db.Model(&leave.LeaveCreditRequest{}).
		Where("employee_id = ?", employeeID).
		Where("date_worked = ?", day).
		Where("status IN ?", []string{leave.CreditStatusPending, leave.CreditStatusApproved}).
		Count(&count).Error
	return count > 0, err
}
