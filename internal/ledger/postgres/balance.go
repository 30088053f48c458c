package postgres

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/ledger"
)

type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) ledger.Repository {
	return &BalanceRepository{db: db}
}

// withRowLock adds SELECT ... FOR UPDATE on engines that support it.
// sqlite serializes writers anyway and rejects the clause.
func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *BalanceRepository) GetForUpdate(tx *gorm.DB, employeeID, leaveTypeID int64, year int) (*ledger.Balance, error) {
	var b ledger.Balance
	err := withRowLock(tx).
		Where("employee_id = ? AND leave_type_id = ? AND leave_year = ?", employeeID, leaveTypeID, year).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrBalanceNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BalanceRepository) GetOrCreateForUpdate(tx *gorm.DB, employeeID, leaveTypeID int64, year int) (*ledger.Balance, error) {
	b, err := r.GetForUpdate(tx, employeeID, leaveTypeID, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, internal.ErrBalanceNotFound) {
		return nil, err
	}

	b = &ledger.Balance{
		EmployeeID:      employeeID,
		LeaveTypeID:     leaveTypeID,
		LeaveYear:       year,
		OpeningBalance:  decimal.Zero,
		Accrued:         decimal.Zero,
		CarryForward:    decimal.Zero,
		Taken:           decimal.Zero,
		PendingApproval: decimal.Zero,
		Available:       decimal.Zero,
		Encashed:        decimal.Zero,
	}
	if err := tx.Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BalanceRepository) Save(tx *gorm.DB, b *ledger.Balance) error {
	return tx.Save(b).Error
}

func (r *BalanceRepository) Get(employeeID, leaveTypeID int64, year int) (*ledger.Balance, error) {
	var b ledger.Balance
	err := r.db.
		Where("employee_id = ? AND leave_type_id = ? AND leave_year = ?", employeeID, leaveTypeID, year).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrBalanceNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BalanceRepository) ListByEmployee(employeeID int64, year int) ([]*ledger.Balance, error) {
	var balances []*ledger.Balance
	err := r.db.
		Where("employee_id = ? AND leave_year = ?", employeeID, year).
		Order("leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *BalanceRepository) ListByEmployees(employeeIDs []int64, year int) ([]*ledger.Balance, error) {
	if len(employeeIDs) == 0 {
		return []*ledger.Balance{}, nil
	}
	var balances []*ledger.Balance
	err := r.db.
		Where("employee_id IN ? AND leave_year = ?", employeeIDs, year).
		Order("employee_id ASC, leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *BalanceRepository) ListByYear(year int) ([]*ledger.Balance, error) {
	var balances []*ledger.Balance
	err := r.db.
		Where("leave_year = ?", year).
		Order("employee_id ASC, leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}
