package leavetype

import (
	"context"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/events"
)

type Service struct {
	repo   Repository
	txm    database.TxManager
	bus    *events.EventBus
	logger *slog.Logger
	seedMu sync.Mutex
	seeded bool
}

func NewService(repo Repository, txm database.TxManager, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		txm:    txm,
		bus:    bus,
		logger: logger,
	}
}

func intPtr(v int) *int { return &v }

// defaultTypes mirrors the standard policy catalogue the platform ships
// with. Entitlements are per year; monthly types accrue pro-rata.
func defaultTypes() []*LeaveType {
	return []*LeaveType{
		{Name: leaveDatamodel.TypeEarnedLeave, Abbr: "EL", AnnualEntitlement: 15, AccrualMethod: leaveDatamodel.AccrualMethodMonthly, CarryForward: true, MaxCarryForward: intPtr(30), Encashment: true, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 2, RequiresApproval: true},
		{Name: leaveDatamodel.TypeCasualLeave, Abbr: "CL", AnnualEntitlement: 12, AccrualMethod: leaveDatamodel.AccrualMethodMonthly, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeSickLeave, Abbr: "SL", AnnualEntitlement: 12, AccrualMethod: leaveDatamodel.AccrualMethodMonthly, CarryForward: true, MaxCarryForward: intPtr(24), GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeCompensatoryOff, Abbr: "CO", AnnualEntitlement: 0, AccrualMethod: leaveDatamodel.AccrualMethodManual, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeLossOfPay, Abbr: "LOP", AnnualEntitlement: 0, AccrualMethod: leaveDatamodel.AccrualMethodManual, NegativeBalanceAllowed: true, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeMaternityLeave, Abbr: "ML", AnnualEntitlement: 180, AccrualMethod: leaveDatamodel.AccrualMethodManual, GenderEligibility: leaveDatamodel.GenderFemale, RequiresDocument: true, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypePaternityLeave, Abbr: "PL", AnnualEntitlement: 5, AccrualMethod: leaveDatamodel.AccrualMethodManual, GenderEligibility: leaveDatamodel.GenderMale, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeBereavementLeave, Abbr: "BL", AnnualEntitlement: 5, AccrualMethod: leaveDatamodel.AccrualMethodManual, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeMarriageLeave, Abbr: "MRL", AnnualEntitlement: 3, AccrualMethod: leaveDatamodel.AccrualMethodManual, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeAdoptionLeave, Abbr: "AL", AnnualEntitlement: 84, AccrualMethod: leaveDatamodel.AccrualMethodManual, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
		{Name: leaveDatamodel.TypeRestrictedHoliday, Abbr: "RH", AnnualEntitlement: 2, AccrualMethod: leaveDatamodel.AccrualMethodAnnual, GenderEligibility: leaveDatamodel.GenderAll, ApprovalLevels: 1, RequiresApproval: true},
	}
}

// EnsureDefaults seeds the default leave types when none exist. Explicit
// and idempotent: called from the seed command and on server start, never
// as an import side effect. The guard only latches after a clean pass so
// a failed first attempt stays retryable.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.seeded {
		return nil
	}

	count, err := s.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		s.seeded = true
		return nil
	}

	for _, lt := range defaultTypes() {
		if err := s.repo.Create(lt); err != nil {
			return err
		}
	}

	s.logger.Info("seeded default leave types", "count", len(defaultTypes()))
	s.seeded = true
	return nil
}

func (s *Service) ListTypes() ([]*LeaveType, error) {
	return s.repo.List()
}

func (s *Service) GetType(id int64) (*LeaveType, error) {
	return s.repo.GetByID(id)
}

func (s *Service) CreateType(actor internal.Actor, dto LeaveTypeDTO) (*LeaveType, error) {
	if !actor.IsSuperAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	lt := dto.toModel()
	if err := s.repo.Create(lt); err != nil {
		s.logger.Error("failed to create leave type", "error", err, "name", lt.Name)
		return nil, err
	}

	s.logger.Info("leave type created", "leave_type_id", lt.ID, "name", lt.Name, "actor_id", actor.EmployeeID)
	return lt, nil
}

func (s *Service) UpdateType(actor internal.Actor, id int64, dto LeaveTypeDTO) (*LeaveType, error) {
	if !actor.IsSuperAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	lt, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	dto.apply(lt)
	if err := s.repo.Update(lt); err != nil {
		s.logger.Error("failed to update leave type", "error", err, "leave_type_id", id)
		return nil, err
	}

	return lt, nil
}

// DeleteType removes a leave type and cascades to every balance,
// application and credit request referencing it. Destructive by policy.
func (s *Service) DeleteType(ctx context.Context, actor internal.Actor, id int64) error {
	if !actor.IsSuperAdmin() {
		return internal.ErrUnauthorizedAccess
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}

	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		return s.repo.DeleteCascade(tx, id)
	})
	if err != nil {
		s.logger.Error("failed to delete leave type", "error", err, "leave_type_id", id)
		return err
	}

	s.logger.Info("leave type deleted with cascade", "leave_type_id", id, "actor_id", actor.EmployeeID)
	s.bus.Publish(ctx, events.NewLeaveEvent(events.LeaveTypeDeleted, actor.EmployeeID, "leave_type", id, nil))
	return nil
}
