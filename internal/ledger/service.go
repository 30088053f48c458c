package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/employee"
	"github.com/frahmantamala/leave-management/internal/leavetype"
)

// Service owns every mutation of ledger rows. Reserve, Commit and
// Release are transaction-scoped: callers run them inside a TxManager
// closure together with the application mutation they belong to, holding
// the ledger key lock for the duration.
type Service struct {
	repo      Repository
	types     leavetype.Repository
	employees employee.Repository
	txm       database.TxManager
	keys      *database.KeyLock
	bus       *events.EventBus
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, types leavetype.Repository, employees employee.Repository, txm database.TxManager, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		types:     types,
		employees: employees,
		txm:       txm,
		keys:      database.NewKeyLock(),
		bus:       bus,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Lock serializes ledger mutations for one key. Returns the release
// function; callers hold it across their whole transaction.
func (s *Service) Lock(employeeID, leaveTypeID int64, year int) func() {
	return s.keys.Acquire(employeeID, leaveTypeID, year)
}

// ReserveTx moves days from available into pending_approval. Fails with
// ErrInsufficientBalance unless the type allows negative balances or
// available covers the request.
func (s *Service) ReserveTx(tx *gorm.DB, employeeID, leaveTypeID int64, year int, days decimal.Decimal, negativeAllowed bool) (*Balance, error) {
	balance, err := s.repo.GetOrCreateForUpdate(tx, employeeID, leaveTypeID, year)
	if err != nil {
		return nil, err
	}

	if !negativeAllowed && balance.Available.LessThan(days) {
		return nil, internal.ErrInsufficientBalance.WithDetails(map[string]string{
			"available": balance.Available.StringFixed(2),
			"requested": days.StringFixed(2),
		})
	}

	balance.PendingApproval = balance.PendingApproval.Add(days)
	balance.Recompute()

	if err := s.repo.Save(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// CommitTx finalizes a reservation on approval: pending_approval -> taken.
// Net available is unchanged.
func (s *Service) CommitTx(tx *gorm.DB, employeeID, leaveTypeID int64, year int, days decimal.Decimal) (*Balance, error) {
	balance, err := s.repo.GetForUpdate(tx, employeeID, leaveTypeID, year)
	if err != nil {
		return nil, err
	}

	if balance.PendingApproval.LessThan(days) {
		return nil, s.consistencyFault("commit would drive pending_approval negative", balance, days)
	}

	balance.PendingApproval = balance.PendingApproval.Sub(days)
	balance.Taken = balance.Taken.Add(days)
	balance.Recompute()

	if err := s.repo.Save(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// ReleasePendingTx returns reserved days to available (reject, cancel,
// edit-while-pending).
func (s *Service) ReleasePendingTx(tx *gorm.DB, employeeID, leaveTypeID int64, year int, days decimal.Decimal) (*Balance, error) {
	balance, err := s.repo.GetForUpdate(tx, employeeID, leaveTypeID, year)
	if err != nil {
		return nil, err
	}

	if balance.PendingApproval.LessThan(days) {
		return nil, s.consistencyFault("release would drive pending_approval negative", balance, days)
	}

	balance.PendingApproval = balance.PendingApproval.Sub(days)
	balance.Recompute()

	if err := s.repo.Save(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// ReleaseTakenTx returns already-committed days to available, as when an
// approved leave is recalled early.
func (s *Service) ReleaseTakenTx(tx *gorm.DB, employeeID, leaveTypeID int64, year int, days decimal.Decimal) (*Balance, error) {
	balance, err := s.repo.GetForUpdate(tx, employeeID, leaveTypeID, year)
	if err != nil {
		return nil, err
	}

	if balance.Taken.LessThan(days) {
		return nil, s.consistencyFault("release would drive taken negative", balance, days)
	}

	balance.Taken = balance.Taken.Sub(days)
	balance.Recompute()

	if err := s.repo.Save(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// CreditTx grants earned days (comp-off approval): accrued and available
// both grow by the credited amount.
func (s *Service) CreditTx(tx *gorm.DB, employeeID, leaveTypeID int64, year int, days decimal.Decimal) (*Balance, error) {
	balance, err := s.repo.GetOrCreateForUpdate(tx, employeeID, leaveTypeID, year)
	if err != nil {
		return nil, err
	}

	balance.Accrued = balance.Accrued.Add(days)
	balance.Recompute()

	if err := s.repo.Save(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// consistencyFault logs the violated invariant at the highest severity
// and returns the fatal error that aborts the surrounding transaction.
func (s *Service) consistencyFault(msg string, balance *Balance, days decimal.Decimal) error {
	s.logger.Error("ledger consistency fault",
		"message", msg,
		"employee_id", balance.EmployeeID,
		"leave_type_id", balance.LeaveTypeID,
		"year", balance.LeaveYear,
		"pending_approval", balance.PendingApproval.StringFixed(2),
		"taken", balance.Taken.StringFixed(2),
		"days", days.StringFixed(2))
	return internal.NewConsistencyFault(msg)
}

// ----------------- QUERIES -----------------

// GetBalance reads one ledger row without locking.
func (s *Service) GetBalance(employeeID, leaveTypeID int64, year int) (*Balance, error) {
	return s.repo.Get(employeeID, leaveTypeID, year)
}

// MyBalances refreshes accruals and returns the employee's rows for a year.
func (s *Service) MyBalances(ctx context.Context, employeeID int64, year int) ([]*Balance, error) {
	if err := s.RefreshAccrual(ctx, employeeID, year); err != nil {
		return nil, err
	}
	return s.repo.ListByEmployee(employeeID, year)
}

// TeamBalances refreshes and returns balances for a manager's reports.
func (s *Service) TeamBalances(ctx context.Context, managerID int64, year int) ([]*Balance, error) {
	ids, err := s.employees.ListTeamIDs(managerID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := s.RefreshAccrual(ctx, id, year); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByEmployees(ids, year)
}

// AllBalances refreshes every employee and returns the year's rows.
func (s *Service) AllBalances(ctx context.Context, year int) ([]*Balance, error) {
	ids, err := s.employees.ListAllIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := s.RefreshAccrual(ctx, id, year); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByYear(year)
}
