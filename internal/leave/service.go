package leave

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/database"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/employee"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/ledger"
)

// Service drives the application state machine. Every transition that
// touches the ledger runs inside one transaction with the ledger key
// lock held, so a status write and its balance effect commit together
// or not at all.
type Service struct {
	apps      Repository
	types     leavetype.Repository
	employees employee.Repository
	ledger    *ledger.Service
	calendar  *calendar.Service
	validator *Validator
	resolver  ApproverResolver
	txm       database.TxManager
	bus       *events.EventBus
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	apps Repository,
	types leavetype.Repository,
	employees employee.Repository,
	ledgerSvc *ledger.Service,
	cal *calendar.Service,
	validator *Validator,
	resolver ApproverResolver,
	txm database.TxManager,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		apps:      apps,
		types:     types,
		employees: employees,
		ledger:    ledgerSvc,
		calendar:  cal,
		validator: validator,
		resolver:  resolver,
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

// Apply validates eligibility, creates the application at step 1 and
// reserves the working days on the ledger, all-or-nothing.
func (s *Service) Apply(ctx context.Context, actor internal.Actor, dto ApplyLeaveDTO) (*Application, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	emp, err := s.employees.GetByID(actor.EmployeeID)
	if err != nil {
		return nil, err
	}

	year := dto.FromDate.Year()
	if err := s.ledger.RefreshAccrual(ctx, emp.ID, year); err != nil {
		return nil, err
	}

	days, err := s.calendar.WorkingDays(dto.FromDate, dto.toOrFrom(), dto.DurationType)
	if err != nil {
		return nil, err
	}
	if !days.IsPositive() {
		return nil, internal.ErrNoWorkingDays
	}

	lt, err := s.types.GetByID(dto.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.CheckPolicy(emp, lt, dto, days, 0); err != nil {
		return nil, err
	}

	app := &Application{
		EmployeeID:          emp.ID,
		LeaveTypeID:         lt.ID,
		DurationType:        dto.DurationType,
		FromDate:            dto.FromDate,
		ToDate:              dto.toOrFrom(),
		NumberOfDays:        days,
		Reason:              dto.Reason,
		Attachment:          dto.Attachment,
		Status:              leaveDatamodel.StatusPending,
		CurrentApprovalStep: 1,
	}

	release := s.ledger.Lock(emp.ID, lt.ID, year)
	defer release()

	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		if err := s.apps.Create(tx, app); err != nil {
			return err
		}
		_, err := s.ledger.ReserveTx(tx, emp.ID, lt.ID, year, days, lt.NegativeBalanceAllowed)
		return err
	})
	if err != nil {
		s.logger.Error("apply leave failed", "error", err, "employee_id", emp.ID, "leave_type_id", lt.ID)
		return nil, err
	}

	s.logger.Info("leave applied",
		"application_id", app.ID,
		"employee_id", emp.ID,
		"leave_type_id", lt.ID,
		"days", days.StringFixed(2))

	s.bus.Publish(ctx, events.NewLeaveEvent(events.LeaveApplied, actor.EmployeeID, "leave_application", app.ID, map[string]interface{}{
		"days": days.StringFixed(2),
	}))
	return app, nil
}

// Approve advances a pending application one step; at the final step it
// commits the reservation and the application becomes approved.
func (s *Service) Approve(ctx context.Context, actor internal.Actor, applicationID int64, note string) (*Application, error) {
	app, err := s.apps.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsPending() {
		return nil, internal.ErrInvalidApplicationState
	}

	if err := s.authorizeApprover(actor, app, app.CurrentApprovalStep); err != nil {
		return nil, err
	}

	lt, err := s.types.GetByID(app.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	year := app.FromDate.Year()
	release := s.ledger.Lock(app.EmployeeID, app.LeaveTypeID, year)
	defer release()

	var final bool
	var result *Application
	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		cur, err := s.apps.GetByIDForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		if !cur.IsPending() {
			return internal.ErrInvalidApplicationState
		}

		step := cur.CurrentApprovalStep
		resulting := leaveDatamodel.StatusPending

		if step < lt.ApprovalLevels {
			cur.CurrentApprovalStep = step + 1
		} else {
			now := s.now()
			cur.Status = leaveDatamodel.StatusApproved
			cur.ApproverID = &actor.EmployeeID
			cur.ApprovedDate = &now
			if note != "" {
				cur.ApproverNote = &note
			}
			resulting = leaveDatamodel.StatusApproved
			final = true

			if _, err := s.ledger.CommitTx(tx, cur.EmployeeID, cur.LeaveTypeID, year, cur.NumberOfDays); err != nil {
				return err
			}
		}

		if err := s.apps.Update(tx, cur); err != nil {
			return err
		}
		if err := s.apps.AppendLog(tx, &ApprovalLog{
			ApplicationID:   cur.ID,
			ApproverID:      actor.EmployeeID,
			Step:            step,
			ResultingStatus: resulting,
			Comments:        note,
		}); err != nil {
			return err
		}

		result = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.LeaveStepApproved
	if final {
		eventType = events.LeaveApproved
	}
	s.logger.Info("leave approval recorded",
		"application_id", applicationID,
		"approver_id", actor.EmployeeID,
		"final", final)
	s.bus.Publish(ctx, events.NewLeaveEvent(eventType, actor.EmployeeID, "leave_application", applicationID, nil))

	return result, nil
}

// Reject terminates a pending application and releases the reservation.
func (s *Service) Reject(ctx context.Context, actor internal.Actor, applicationID int64, note string) (*Application, error) {
	app, err := s.apps.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsPending() {
		return nil, internal.ErrInvalidApplicationState
	}

	if err := s.authorizeApprover(actor, app, app.CurrentApprovalStep); err != nil {
		return nil, err
	}

	year := app.FromDate.Year()
	release := s.ledger.Lock(app.EmployeeID, app.LeaveTypeID, year)
	defer release()

	var result *Application
	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		cur, err := s.apps.GetByIDForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		if !cur.IsPending() {
			return internal.ErrInvalidApplicationState
		}

		step := cur.CurrentApprovalStep
		now := s.now()
		cur.Status = leaveDatamodel.StatusRejected
		cur.ApproverID = &actor.EmployeeID
		cur.ApprovedDate = &now
		if note != "" {
			cur.ApproverNote = &note
		}

		if _, err := s.ledger.ReleasePendingTx(tx, cur.EmployeeID, cur.LeaveTypeID, year, cur.NumberOfDays); err != nil {
			return err
		}
		if err := s.apps.Update(tx, cur); err != nil {
			return err
		}
		if err := s.apps.AppendLog(tx, &ApprovalLog{
			ApplicationID:   cur.ID,
			ApproverID:      actor.EmployeeID,
			Step:            step,
			ResultingStatus: leaveDatamodel.StatusRejected,
			Comments:        note,
		}); err != nil {
			return err
		}

		result = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave rejected", "application_id", applicationID, "approver_id", actor.EmployeeID)
	s.bus.Publish(ctx, events.NewLeaveEvent(events.LeaveRejected, actor.EmployeeID, "leave_application", applicationID, nil))
	return result, nil
}

// Cancel hard-deletes a still-pending application owned by the actor and
// returns the reservation. Approved leaves are recalled, not cancelled.
func (s *Service) Cancel(ctx context.Context, actor internal.Actor, applicationID int64) error {
	app, err := s.apps.GetByID(applicationID)
	if err != nil {
		return err
	}
	if app.EmployeeID != actor.EmployeeID {
		return internal.ErrUnauthorizedAccess
	}
	if !app.IsPending() {
		return internal.ErrInvalidApplicationState
	}

	year := app.FromDate.Year()
	release := s.ledger.Lock(app.EmployeeID, app.LeaveTypeID, year)
	defer release()

	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		cur, err := s.apps.GetByIDForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		if !cur.IsPending() {
			return internal.ErrInvalidApplicationState
		}

		if _, err := s.ledger.ReleasePendingTx(tx, cur.EmployeeID, cur.LeaveTypeID, year, cur.NumberOfDays); err != nil {
			return err
		}
		return s.apps.Delete(tx, applicationID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("leave cancelled", "application_id", applicationID, "employee_id", actor.EmployeeID)
	s.bus.Publish(ctx, events.NewLeaveEvent(events.LeaveCancelled, actor.EmployeeID, "leave_application", applicationID, nil))
	return nil
}

// Recall shortens an approved leave effective dto.RecallDate: the days
// after the recall date flow from taken back to available and the
// application terminates as recalled.
func (s *Service) Recall(ctx context.Context, actor internal.Actor, applicationID int64, dto RecallDTO) (*Application, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	app, err := s.apps.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsApproved() {
		return nil, internal.ErrInvalidApplicationState
	}

	if err := s.authorizeApprover(actor, app, app.CurrentApprovalStep); err != nil {
		return nil, err
	}

	recallDay := calendar.DateKey(dto.RecallDate)
	if recallDay < calendar.DateKey(app.FromDate) || recallDay >= calendar.DateKey(app.ToDate) {
		return nil, internal.ErrInvalidRecallDate
	}

	newDays, err := s.calendar.WorkingDays(app.FromDate, dto.RecallDate, app.DurationType)
	if err != nil {
		return nil, err
	}
	unusedDays := app.NumberOfDays.Sub(newDays)
	if unusedDays.IsNegative() {
		return nil, internal.ErrInvalidRecallDate
	}

	year := app.FromDate.Year()
	release := s.ledger.Lock(app.EmployeeID, app.LeaveTypeID, year)
	defer release()

	var result *Application
	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		cur, err := s.apps.GetByIDForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		if !cur.IsApproved() {
			return internal.ErrInvalidApplicationState
		}

		if _, err := s.ledger.ReleaseTakenTx(tx, cur.EmployeeID, cur.LeaveTypeID, year, unusedDays); err != nil {
			return err
		}

		cur.ToDate = dto.RecallDate
		cur.NumberOfDays = newDays
		cur.Status = leaveDatamodel.StatusRecalled
		if err := s.apps.Update(tx, cur); err != nil {
			return err
		}
		if err := s.apps.AppendLog(tx, &ApprovalLog{
			ApplicationID:   cur.ID,
			ApproverID:      actor.EmployeeID,
			Step:            cur.CurrentApprovalStep,
			ResultingStatus: leaveDatamodel.StatusRecalled,
			Comments:        dto.Reason,
		}); err != nil {
			return err
		}

		result = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave recalled",
		"application_id", applicationID,
		"approver_id", actor.EmployeeID,
		"released_days", unusedDays.StringFixed(2))
	s.bus.Publish(ctx, events.NewLeaveEvent(events.LeaveRecalled, actor.EmployeeID, "leave_application", applicationID, map[string]interface{}{
		"released_days": unusedDays.StringFixed(2),
	}))
	return result, nil
}

// Update edits a still-pending application. The old reservation is
// released and the new one taken inside a single transaction spanning
// both ledger keys, so a type or year change can never leave days
// stranded between rows. Approval restarts at step 1.
func (s *Service) Update(ctx context.Context, actor internal.Actor, applicationID int64, dto ApplyLeaveDTO) (*Application, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	app, err := s.apps.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app.EmployeeID != actor.EmployeeID {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !app.IsPending() {
		return nil, internal.ErrInvalidApplicationState
	}

	emp, err := s.employees.GetByID(actor.EmployeeID)
	if err != nil {
		return nil, err
	}

	newYear := dto.FromDate.Year()
	if err := s.ledger.RefreshAccrual(ctx, emp.ID, newYear); err != nil {
		return nil, err
	}

	newDays, err := s.calendar.WorkingDays(dto.FromDate, dto.toOrFrom(), dto.DurationType)
	if err != nil {
		return nil, err
	}
	if !newDays.IsPositive() {
		return nil, internal.ErrNoWorkingDays
	}

	newType, err := s.types.GetByID(dto.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.CheckPolicy(emp, newType, dto, newDays, app.ID); err != nil {
		return nil, err
	}

	oldKey := ledgerKey{typeID: app.LeaveTypeID, year: app.FromDate.Year()}
	newKey := ledgerKey{typeID: newType.ID, year: newYear}
	for _, unlock := range s.lockKeys(app.EmployeeID, oldKey, newKey) {
		defer unlock()
	}

	var result *Application
	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		cur, err := s.apps.GetByIDForUpdate(tx, applicationID)
		if err != nil {
			return err
		}
		if !cur.IsPending() {
			return internal.ErrInvalidApplicationState
		}

		if _, err := s.ledger.ReleasePendingTx(tx, cur.EmployeeID, oldKey.typeID, oldKey.year, cur.NumberOfDays); err != nil {
			return err
		}
		if _, err := s.ledger.ReserveTx(tx, cur.EmployeeID, newKey.typeID, newKey.year, newDays, newType.NegativeBalanceAllowed); err != nil {
			return err
		}

		cur.LeaveTypeID = newType.ID
		cur.DurationType = dto.DurationType
		cur.FromDate = dto.FromDate
		cur.ToDate = dto.toOrFrom()
		cur.NumberOfDays = newDays
		cur.Reason = dto.Reason
		cur.Attachment = dto.Attachment
		cur.CurrentApprovalStep = 1

		result = cur
		return s.apps.Update(tx, cur)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave application updated", "application_id", applicationID, "employee_id", actor.EmployeeID)
	s.bus.Publish(ctx, events.NewLeaveEvent(events.LeaveUpdated, actor.EmployeeID, "leave_application", applicationID, nil))
	return result, nil
}

type ledgerKey struct {
	typeID int64
	year   int
}

// lockKeys acquires the ledger locks for the given keys in a stable
// order so concurrent updates cannot deadlock.
func (s *Service) lockKeys(employeeID int64, keys ...ledgerKey) []func() {
	uniq := make([]ledgerKey, 0, len(keys))
	seen := make(map[ledgerKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			uniq = append(uniq, k)
		}
	}
	sort.Slice(uniq, func(i, j int) bool {
		if uniq[i].typeID != uniq[j].typeID {
			return uniq[i].typeID < uniq[j].typeID
		}
		return uniq[i].year < uniq[j].year
	})

	releases := make([]func(), 0, len(uniq))
	for _, k := range uniq {
		releases = append(releases, s.ledger.Lock(employeeID, k.typeID, k.year))
	}
	return releases
}

func (s *Service) authorizeApprover(actor internal.Actor, app *Application, step int) error {
	emp, err := s.employees.GetByID(app.EmployeeID)
	if err != nil {
		return err
	}
	if !s.resolver.CanApprove(actor, step, ApprovalContext{Application: app, EmployeeManagerID: emp.ManagerID}) {
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

// ----------------- QUERIES -----------------

func (s *Service) GetApplication(actor internal.Actor, applicationID int64) (*Application, error) {
	app, err := s.apps.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app.EmployeeID != actor.EmployeeID && !actor.IsManager() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return app, nil
}

func (s *Service) MyApplications(actor internal.Actor, year *int) ([]*Application, error) {
	return s.apps.ListByEmployee(actor.EmployeeID, year)
}

func (s *Service) TeamApplications(actor internal.Actor, year *int) ([]*Application, error) {
	if !actor.IsManager() {
		return nil, internal.ErrUnauthorizedAccess
	}
	ids, err := s.employees.ListTeamIDs(actor.EmployeeID)
	if err != nil {
		return nil, err
	}
	return s.apps.ListByEmployees(ids, year)
}

func (s *Service) AllApplications(actor internal.Actor, year *int) ([]*Application, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.apps.ListAll(year)
}

// PendingApprovals lists what the actor may act on: admins see every
// pending application, managers see their reports' first-step requests.
func (s *Service) PendingApprovals(actor internal.Actor) ([]*Application, error) {
	if actor.IsAdmin() {
		return s.apps.ListPending()
	}
	if actor.Role == internal.RoleManager {
		return s.apps.ListPendingForManager(actor.EmployeeID)
	}
	return nil, internal.ErrUnauthorizedAccess
}

func (s *Service) ApprovalTrail(actor internal.Actor, applicationID int64) ([]*ApprovalLog, error) {
	app, err := s.apps.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app.EmployeeID != actor.EmployeeID && !actor.IsManager() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.apps.ListLogs(applicationID)
}

func (s *Service) Stats(actor internal.Actor, year int) (*StatsDTO, error) {
	if !actor.IsManager() {
		return nil, internal.ErrUnauthorizedAccess
	}

	ids, err := s.employees.ListAllIDs()
	if err != nil {
		return nil, err
	}
	pending, err := s.apps.CountPending()
	if err != nil {
		return nil, err
	}
	taken, err := s.apps.TakenByType(year)
	if err != nil {
		return nil, err
	}

	return &StatsDTO{
		TotalEmployees:      len(ids),
		PendingApplications: pending,
		TakenByType:         taken,
	}, nil
}
