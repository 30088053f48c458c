package credit

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/employee"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/ledger"
)

// Service handles compensatory-off credits: an employee who worked a
// weekend or holiday requests one credited day, and approval adds it to
// the comp-off balance for the year of the date worked.
type Service struct {
	repo      Repository
	types     leavetype.Repository
	employees employee.Repository
	ledger    *ledger.Service
	txm       database.TxManager
	bus       *events.EventBus
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	types leavetype.Repository,
	employees employee.Repository,
	ledgerSvc *ledger.Service,
	txm database.TxManager,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		types:     types,
		employees: employees,
		ledger:    ledgerSvc,
		txm:       txm,
		bus:       bus,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Request files a credit claim for a date worked. One active claim per
// employee per date; rejected claims free the date for a new attempt.
func (s *Service) Request(ctx context.Context, actor internal.Actor, dto CreditRequestDTO) (*CreditRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.DateWorked.After(s.now()) {
		return nil, internal.NewValidationError("date worked must not be in the future", internal.ErrCodeValidationFailed)
	}

	compOff, err := s.types.GetByName(leaveDatamodel.TypeCompensatoryOff)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.HasActiveForDate(actor.EmployeeID, dto.DateWorked)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, internal.ErrDuplicateCreditRequest
	}

	req := &CreditRequest{
		EmployeeID:  actor.EmployeeID,
		LeaveTypeID: compOff.ID,
		DateWorked:  dto.DateWorked,
		Reason:      dto.Reason,
		Status:      leaveDatamodel.CreditStatusPending,
	}
	if err := s.repo.Create(req); err != nil {
		return nil, err
	}

	s.logger.Info("credit requested", "request_id", req.ID, "employee_id", actor.EmployeeID)
	s.bus.Publish(ctx, events.NewLeaveEvent(events.CreditRequested, actor.EmployeeID, "leave_credit_request", req.ID, nil))
	return req, nil
}

// Approve grants one credited day on the comp-off balance for the year
// of the date worked. The status flip and the ledger credit commit in
// the same transaction.
func (s *Service) Approve(ctx context.Context, actor internal.Actor, requestID int64) (*CreditRequest, error) {
	req, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != leaveDatamodel.CreditStatusPending {
		return nil, internal.ErrInvalidApplicationState
	}
	if err := s.authorize(actor, req.EmployeeID); err != nil {
		return nil, err
	}

	year := req.DateWorked.Year()
	release := s.ledger.Lock(req.EmployeeID, req.LeaveTypeID, year)
	defer release()

	var result *CreditRequest
	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		cur, err := s.repo.GetByIDForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if cur.Status != leaveDatamodel.CreditStatusPending {
			return internal.ErrInvalidApplicationState
		}

		now := s.now()
		cur.Status = leaveDatamodel.CreditStatusApproved
		cur.ApproverID = &actor.EmployeeID
		cur.ApprovedDate = &now

		if _, err := s.ledger.CreditTx(tx, cur.EmployeeID, cur.LeaveTypeID, year, decimal.NewFromInt(1)); err != nil {
			return err
		}

		result = cur
		return s.repo.Update(tx, cur)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit approved", "request_id", requestID, "approver_id", actor.EmployeeID)
	s.bus.Publish(ctx, events.NewLeaveEvent(events.CreditApproved, actor.EmployeeID, "leave_credit_request", requestID, nil))
	return result, nil
}

// Reject terminates a pending claim. No ledger effect.
func (s *Service) Reject(ctx context.Context, actor internal.Actor, requestID int64) (*CreditRequest, error) {
	req, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != leaveDatamodel.CreditStatusPending {
		return nil, internal.ErrInvalidApplicationState
	}
	if err := s.authorize(actor, req.EmployeeID); err != nil {
		return nil, err
	}

	var result *CreditRequest
	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		cur, err := s.repo.GetByIDForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if cur.Status != leaveDatamodel.CreditStatusPending {
			return internal.ErrInvalidApplicationState
		}

		now := s.now()
		cur.Status = leaveDatamodel.CreditStatusRejected
		cur.ApproverID = &actor.EmployeeID
		cur.ApprovedDate = &now

		result = cur
		return s.repo.Update(tx, cur)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit rejected", "request_id", requestID, "approver_id", actor.EmployeeID)
	s.bus.Publish(ctx, events.NewLeaveEvent(events.CreditRejected, actor.EmployeeID, "leave_credit_request", requestID, nil))
	return result, nil
}

func (s *Service) MyRequests(actor internal.Actor) ([]*CreditRequest, error) {
	return s.repo.ListByEmployee(actor.EmployeeID)
}

func (s *Service) PendingRequests(actor internal.Actor) ([]*CreditRequest, error) {
	if !actor.IsManager() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.ListPending()
}

// authorize allows admins, or the requesting employee's direct manager.
func (s *Service) authorize(actor internal.Actor, employeeID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == internal.RoleManager {
		emp, err := s.employees.GetByID(employeeID)
		if err != nil {
			return err
		}
		if emp.ManagerID != nil && *emp.ManagerID == actor.EmployeeID {
			return nil
		}
	}
	return internal.ErrUnauthorizedAccess
}
