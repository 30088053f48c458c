package leave_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/calendar"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/employee"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/ledger"
)

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// Mock application repository backed by a map.
type mockLeaveRepository struct {
	apps   map[int64]*leave.Application
	logs   []*leave.ApprovalLog
	nextID int64
}

func newMockLeaveRepository() *mockLeaveRepository {
	return &mockLeaveRepository{apps: make(map[int64]*leave.Application), nextID: 1}
}

func (m *mockLeaveRepository) Create(tx *gorm.DB, app *leave.Application) error {
	app.ID = m.nextID
	m.nextID++
	m.apps[app.ID] = app
	return nil
}

func (m *mockLeaveRepository) GetByID(id int64) (*leave.Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, internal.ErrApplicationNotFound
	}
	return app, nil
}

func (m *mockLeaveRepository) GetByIDForUpdate(tx *gorm.DB, id int64) (*leave.Application, error) {
	return m.GetByID(id)
}

func (m *mockLeaveRepository) Update(tx *gorm.DB, app *leave.Application) error {
	if _, ok := m.apps[app.ID]; !ok {
		return internal.ErrApplicationNotFound
	}
	m.apps[app.ID] = app
	return nil
}

func (m *mockLeaveRepository) Delete(tx *gorm.DB, id int64) error {
	if _, ok := m.apps[id]; !ok {
		return internal.ErrApplicationNotFound
	}
	delete(m.apps, id)
	return nil
}

func (m *mockLeaveRepository) ListByEmployee(employeeID int64, year *int) ([]*leave.Application, error) {
	var out []*leave.Application
	for _, app := range m.apps {
		if app.EmployeeID == employeeID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (m *mockLeaveRepository) ListByEmployees(employeeIDs []int64, year *int) ([]*leave.Application, error) {
	var out []*leave.Application
	for _, id := range employeeIDs {
		rows, _ := m.ListByEmployee(id, year)
		out = append(out, rows...)
	}
	return out, nil
}

func (m *mockLeaveRepository) ListAll(year *int) ([]*leave.Application, error) {
	var out []*leave.Application
	for _, app := range m.apps {
		out = append(out, app)
	}
	return out, nil
}

func (m *mockLeaveRepository) ListPending() ([]*leave.Application, error) {
	var out []*leave.Application
	for _, app := range m.apps {
		if app.IsPending() {
			out = append(out, app)
		}
	}
	return out, nil
}

func (m *mockLeaveRepository) ListPendingForManager(managerID int64) ([]*leave.Application, error) {
	// manager visibility is wired in per suite via the employee mock
	var out []*leave.Application
	for _, app := range m.apps {
		if app.IsPending() && app.CurrentApprovalStep == 1 {
			out = append(out, app)
		}
	}
	return out, nil
}

func (m *mockLeaveRepository) HasOverlapping(employeeID int64, from, to time.Time, excludeID int64) (bool, error) {
	for _, app := range m.apps {
		if app.ID == excludeID || app.EmployeeID != employeeID {
			continue
		}
		if app.Status != leaveDatamodel.StatusPending && app.Status != leaveDatamodel.StatusApproved {
			continue
		}
		if !app.FromDate.After(to) && !app.ToDate.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLeaveRepository) HasRestrictedTaken(employeeID, leaveTypeID int64, date time.Time, excludeID int64) (bool, error) {
	for _, app := range m.apps {
		if app.ID == excludeID || app.EmployeeID != employeeID || app.LeaveTypeID != leaveTypeID {
			continue
		}
		if app.Status != leaveDatamodel.StatusPending && app.Status != leaveDatamodel.StatusApproved {
			continue
		}
		if calendar.DateKey(app.FromDate) == calendar.DateKey(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLeaveRepository) AppendLog(tx *gorm.DB, entry *leave.ApprovalLog) error {
	entry.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, entry)
	return nil
}

func (m *mockLeaveRepository) ListLogs(applicationID int64) ([]*leave.ApprovalLog, error) {
	var out []*leave.ApprovalLog
	for _, entry := range m.logs {
		if entry.ApplicationID == applicationID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *mockLeaveRepository) CountPending() (int64, error) {
	rows, _ := m.ListPending()
	return int64(len(rows)), nil
}

func (m *mockLeaveRepository) TakenByType(year int) ([]leave.TypeDays, error) {
	return nil, nil
}

type mockBalanceRepository struct {
	balances map[string]*ledger.Balance
}

func balanceKey(employeeID, leaveTypeID int64, year int) string {
	return fmt.Sprintf("%d/%d/%d", employeeID, leaveTypeID, year)
}

func (m *mockBalanceRepository) GetForUpdate(tx *gorm.DB, employeeID, leaveTypeID int64, year int) (*ledger.Balance, error) {
	b, ok := m.balances[balanceKey(employeeID, leaveTypeID, year)]
	if !ok {
		return nil, internal.ErrBalanceNotFound
	}
	return b, nil
}

func (m *mockBalanceRepository) GetOrCreateForUpdate(tx *gorm.DB, employeeID, leaveTypeID int64, year int) (*ledger.Balance, error) {
	key := balanceKey(employeeID, leaveTypeID, year)
	if b, ok := m.balances[key]; ok {
		return b, nil
	}
	b := &ledger.Balance{EmployeeID: employeeID, LeaveTypeID: leaveTypeID, LeaveYear: year}
	m.balances[key] = b
	return b, nil
}

func (m *mockBalanceRepository) Save(tx *gorm.DB, b *ledger.Balance) error {
	m.balances[balanceKey(b.EmployeeID, b.LeaveTypeID, b.LeaveYear)] = b
	return nil
}

func (m *mockBalanceRepository) Get(employeeID, leaveTypeID int64, year int) (*ledger.Balance, error) {
	return m.GetForUpdate(nil, employeeID, leaveTypeID, year)
}

func (m *mockBalanceRepository) ListByEmployee(employeeID int64, year int) ([]*ledger.Balance, error) {
	var out []*ledger.Balance
	for _, b := range m.balances {
		if b.EmployeeID == employeeID && b.LeaveYear == year {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBalanceRepository) ListByEmployees(employeeIDs []int64, year int) ([]*ledger.Balance, error) {
	var out []*ledger.Balance
	for _, id := range employeeIDs {
		rows, _ := m.ListByEmployee(id, year)
		out = append(out, rows...)
	}
	return out, nil
}

func (m *mockBalanceRepository) ListByYear(year int) ([]*ledger.Balance, error) {
	var out []*ledger.Balance
	for _, b := range m.balances {
		if b.LeaveYear == year {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockTypeRepository struct {
	types []*leavetype.LeaveType
}

func (m *mockTypeRepository) List() ([]*leavetype.LeaveType, error) { return m.types, nil }

func (m *mockTypeRepository) GetByID(id int64) (*leavetype.LeaveType, error) {
	for _, lt := range m.types {
		if lt.ID == id {
			return lt, nil
		}
	}
	return nil, internal.ErrLeaveTypeNotFound
}

func (m *mockTypeRepository) GetByName(name string) (*leavetype.LeaveType, error) {
	for _, lt := range m.types {
		if lt.Name == name {
			return lt, nil
		}
	}
	return nil, internal.ErrLeaveTypeNotFound
}

func (m *mockTypeRepository) Create(lt *leavetype.LeaveType) error {
	lt.ID = int64(len(m.types) + 1)
	m.types = append(m.types, lt)
	return nil
}

func (m *mockTypeRepository) Update(lt *leavetype.LeaveType) error { return nil }

func (m *mockTypeRepository) DeleteCascade(tx *gorm.DB, id int64) error { return nil }

func (m *mockTypeRepository) Count() (int64, error) { return int64(len(m.types)), nil }

type mockEmployeeRepository struct {
	employees map[int64]*employee.Employee
}

func (m *mockEmployeeRepository) GetByID(id int64) (*employee.Employee, error) {
	emp, ok := m.employees[id]
	if !ok {
		return nil, internal.ErrEmployeeNotFound
	}
	return emp, nil
}

func (m *mockEmployeeRepository) ListTeamIDs(managerID int64) ([]int64, error) {
	var out []int64
	for id, emp := range m.employees {
		if emp.ManagerID != nil && *emp.ManagerID == managerID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockEmployeeRepository) ListAllIDs() ([]int64, error) {
	var out []int64
	for id := range m.employees {
		out = append(out, id)
	}
	return out, nil
}

type mockHolidayRepository struct {
	holidays []*calendar.PublicHoliday
}

func (m *mockHolidayRepository) ListBetween(from, to time.Time) ([]*calendar.PublicHoliday, error) {
	var out []*calendar.PublicHoliday
	for _, h := range m.holidays {
		if !h.HolidayDate.Before(from) && !h.HolidayDate.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockHolidayRepository) ListByYear(year int) ([]*calendar.PublicHoliday, error) {
	return m.holidays, nil
}

func (m *mockHolidayRepository) GetByID(id int64) (*calendar.PublicHoliday, error) {
	return nil, internal.ErrHolidayNotFound
}

func (m *mockHolidayRepository) GetRestrictedOn(date time.Time) (*calendar.PublicHoliday, error) {
	for _, h := range m.holidays {
		if h.IsRestricted && calendar.DateKey(h.HolidayDate) == calendar.DateKey(date) {
			return h, nil
		}
	}
	return nil, nil
}

func (m *mockHolidayRepository) Create(h *calendar.PublicHoliday) error {
	m.holidays = append(m.holidays, h)
	return nil
}

func (m *mockHolidayRepository) Update(h *calendar.PublicHoliday) error { return nil }

func (m *mockHolidayRepository) Delete(id int64) error { return nil }

func ptrInt(v int) *int { return &v }

var _ = Describe("LeaveService", func() {
	var (
		service      *leave.Service
		mockApps     *mockLeaveRepository
		mockBalances *mockBalanceRepository
		mockTypes    *mockTypeRepository
		mockEmps     *mockEmployeeRepository
		mockHolidays *mockHolidayRepository
	)

	// 2024-06-01 is a Saturday; the working weeks under test start on
	// Monday the 3rd, 10th and 17th.
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	date := func(d int) time.Time {
		return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
	}

	var (
		actorEmp      = internal.Actor{EmployeeID: 1, Role: internal.RoleEmployee}
		actorManager  = internal.Actor{EmployeeID: 2, Role: internal.RoleManager}
		actorOtherMgr = internal.Actor{EmployeeID: 3, Role: internal.RoleManager}
		actorAdmin    = internal.Actor{EmployeeID: 4, Role: internal.RoleHRAdmin}
		actorEmpF     = internal.Actor{EmployeeID: 5, Role: internal.RoleEmployee}
	)

	const (
		typeEarned     int64 = 1
		typeCasual     int64 = 2
		typeMaternity  int64 = 3
		typeRestricted int64 = 4
		typeLongNotice int64 = 5
	)

	BeforeEach(func() {
		managerID := int64(2)
		mockApps = newMockLeaveRepository()
		mockBalances = &mockBalanceRepository{balances: make(map[string]*ledger.Balance)}
		mockTypes = &mockTypeRepository{types: []*leavetype.LeaveType{
			{ID: typeEarned, Name: leaveDatamodel.TypeEarnedLeave, Abbr: "EL", AnnualEntitlement: 12,
				AccrualMethod: leaveDatamodel.AccrualMethodMonthly, ApprovalLevels: 2, GenderEligibility: leaveDatamodel.GenderAll},
			{ID: typeCasual, Name: leaveDatamodel.TypeCasualLeave, Abbr: "CL", AnnualEntitlement: 12,
				AccrualMethod: leaveDatamodel.AccrualMethodMonthly, ApprovalLevels: 1, GenderEligibility: leaveDatamodel.GenderAll,
				MaxConsecutiveDays: ptrInt(3)},
			{ID: typeMaternity, Name: leaveDatamodel.TypeMaternityLeave, Abbr: "ML", AnnualEntitlement: 180,
				AccrualMethod: leaveDatamodel.AccrualMethodManual, ApprovalLevels: 1,
				GenderEligibility: leaveDatamodel.GenderFemale, RequiresDocument: true},
			{ID: typeRestricted, Name: leaveDatamodel.TypeRestrictedHoliday, Abbr: "RH", AnnualEntitlement: 2,
				AccrualMethod: leaveDatamodel.AccrualMethodAnnual, ApprovalLevels: 1, GenderEligibility: leaveDatamodel.GenderAll},
			{ID: typeLongNotice, Name: "sabbatical_leave", Abbr: "SBL", AnnualEntitlement: 12,
				AccrualMethod: leaveDatamodel.AccrualMethodMonthly, ApprovalLevels: 1, GenderEligibility: leaveDatamodel.GenderAll,
				MinDaysInAdvance: ptrInt(7)},
		}}
		mockEmps = &mockEmployeeRepository{employees: map[int64]*employee.Employee{
			1: {ID: 1, FirstName: "Arjun", LastName: "Nair", Gender: leaveDatamodel.GenderMale,
				DateOfJoining: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), ManagerID: &managerID},
			2: {ID: 2, FirstName: "Priya", LastName: "Sharma", Gender: leaveDatamodel.GenderFemale,
				DateOfJoining: time.Date(2018, time.January, 6, 0, 0, 0, 0, time.UTC)},
			3: {ID: 3, FirstName: "Vikram", LastName: "Rao", Gender: leaveDatamodel.GenderMale,
				DateOfJoining: time.Date(2019, time.May, 2, 0, 0, 0, 0, time.UTC)},
			4: {ID: 4, FirstName: "Meera", LastName: "Iyer", Gender: leaveDatamodel.GenderFemale,
				DateOfJoining: time.Date(2017, time.February, 1, 0, 0, 0, 0, time.UTC)},
			5: {ID: 5, FirstName: "Divya", LastName: "Menon", Gender: leaveDatamodel.GenderFemale,
				DateOfJoining: time.Date(2021, time.April, 5, 0, 0, 0, 0, time.UTC), ManagerID: &managerID},
		}}
		mockHolidays = &mockHolidayRepository{holidays: []*calendar.PublicHoliday{
			{ID: 1, Name: "Optional Festival", HolidayDate: date(19), HolidayType: "Festival", IsRestricted: true},
		}}

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		calendarService := calendar.NewService(mockHolidays, logger)
		ledgerService := ledger.NewService(mockBalances, mockTypes, mockEmps, fakeTxManager{}, bus, logger)
		ledgerService.SetClock(clock)
		validator := leave.NewValidator(calendarService, mockApps)
		validator.SetClock(clock)

		service = leave.NewService(mockApps, mockTypes, mockEmps, ledgerService, calendarService,
			validator, leave.RoleApproverResolver{}, fakeTxManager{}, bus, logger)
		service.SetClock(clock)
	})

	balance := func(employeeID, leaveTypeID int64) *ledger.Balance {
		b, ok := mockBalances.balances[balanceKey(employeeID, leaveTypeID, 2024)]
		Expect(ok).To(BeTrue())
		return b
	}

	applyDTO := func(typeID int64, from, to int) leave.ApplyLeaveDTO {
		return leave.ApplyLeaveDTO{
			LeaveTypeID:  typeID,
			DurationType: leaveDatamodel.DurationFullDay,
			FromDate:     date(from),
			ToDate:       date(to),
			Reason:       "family function",
		}
	}

	Describe("Apply", func() {
		It("creates a pending application and reserves working days", func() {
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))

			Expect(err).ToNot(HaveOccurred())
			Expect(app.ID).To(BeNumerically(">", 0))
			Expect(app.Status).To(Equal(leaveDatamodel.StatusPending))
			Expect(app.CurrentApprovalStep).To(Equal(1))
			Expect(app.NumberOfDays.String()).To(Equal("5"))

			// June accrual is 6 of the 12 annual days
			b := balance(1, typeEarned)
			Expect(b.PendingApproval.String()).To(Equal("5"))
			Expect(b.Available.String()).To(Equal("1"))
		})

		It("rejects a range with no working days", func() {
			// June 8th is a Saturday
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 8, 8))

			Expect(err).To(Equal(internal.ErrNoWorkingDays))
		})

		It("rejects overlapping applications", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Apply(context.Background(), actorEmp, applyDTO(typeCasual, 12, 13))

			Expect(err).To(Equal(internal.ErrOverlappingApplication))
		})

		It("fails when accrued balance cannot cover the request", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 17, 21))

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInsufficientBalance))
		})

		It("enforces the advance notice window", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeLongNotice, 4, 4))

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInsufficientNotice))
		})

		It("enforces gender eligibility", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeMaternity, 10, 14))

			Expect(err).To(Equal(internal.ErrGenderIneligible))
		})

		It("requires a document where the type demands one", func() {
			_, err := service.Apply(context.Background(), actorEmpF, applyDTO(typeMaternity, 10, 14))

			Expect(err).To(Equal(internal.ErrDocumentRequired))
		})

		It("accepts a documented application for a document-gated type", func() {
			attachment := "medical-certificate.pdf"
			dto := applyDTO(typeMaternity, 10, 14)
			dto.Attachment = &attachment

			app, err := service.Apply(context.Background(), actorEmpF, dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(app.Status).To(Equal(leaveDatamodel.StatusPending))
		})

		It("enforces the consecutive days cap", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeCasual, 10, 14))

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeExceedsConsecutiveLimit))
		})

		It("rejects malformed payloads", func() {
			dto := applyDTO(typeEarned, 10, 14)
			dto.Reason = ""

			_, err := service.Apply(context.Background(), actorEmp, dto)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("Apply for a restricted holiday", func() {
		It("accepts a single restricted day", func() {
			// the 19th is the restricted festival
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeRestricted, 19, 19))

			Expect(err).ToNot(HaveOccurred())
			Expect(app.NumberOfDays.String()).To(Equal("1"))
		})

		It("rejects multi-day restricted requests", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeRestricted, 19, 20))

			Expect(err).To(Equal(internal.ErrDuplicateRestrictedHoliday))
		})

		It("rejects dates that are not restricted holidays", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeRestricted, 18, 18))

			Expect(err).To(Equal(internal.ErrDuplicateRestrictedHoliday))
		})

		It("rejects taking the same restricted date twice", func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeRestricted, 19, 19))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Apply(context.Background(), actorEmp, applyDTO(typeRestricted, 19, 19))

			Expect(err).To(Equal(internal.ErrDuplicateRestrictedHoliday))
		})

		It("lets the owner edit a pending application keeping the same date", func() {
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeRestricted, 19, 19))
			Expect(err).ToNot(HaveOccurred())

			dto := applyDTO(typeRestricted, 19, 19)
			dto.Reason = "village festival"
			updated, err := service.Update(context.Background(), actorEmp, app.ID, dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Reason).To(Equal("village festival"))
			Expect(balance(1, typeRestricted).PendingApproval.String()).To(Equal("1"))
		})
	})

	Describe("Approve", func() {
		var applicationID int64

		BeforeEach(func() {
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))
			Expect(err).ToNot(HaveOccurred())
			applicationID = app.ID
		})

		It("advances to the next step without touching the ledger", func() {
			app, err := service.Approve(context.Background(), actorManager, applicationID, "looks fine")

			Expect(err).ToNot(HaveOccurred())
			Expect(app.Status).To(Equal(leaveDatamodel.StatusPending))
			Expect(app.CurrentApprovalStep).To(Equal(2))

			b := balance(1, typeEarned)
			Expect(b.PendingApproval.String()).To(Equal("5"))
			Expect(b.Taken.IsZero()).To(BeTrue())
		})

		It("commits the reservation at the final step", func() {
			_, err := service.Approve(context.Background(), actorManager, applicationID, "")
			Expect(err).ToNot(HaveOccurred())

			app, err := service.Approve(context.Background(), actorAdmin, applicationID, "granted")

			Expect(err).ToNot(HaveOccurred())
			Expect(app.Status).To(Equal(leaveDatamodel.StatusApproved))
			Expect(app.ApproverID).ToNot(BeNil())
			Expect(*app.ApproverID).To(Equal(actorAdmin.EmployeeID))

			b := balance(1, typeEarned)
			Expect(b.PendingApproval.IsZero()).To(BeTrue())
			Expect(b.Taken.String()).To(Equal("5"))
			Expect(b.Available.String()).To(Equal("1"))
		})

		It("records one trail entry per decision", func() {
			_, err := service.Approve(context.Background(), actorManager, applicationID, "step one")
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Approve(context.Background(), actorAdmin, applicationID, "step two")
			Expect(err).ToNot(HaveOccurred())

			trail, err := service.ApprovalTrail(actorEmp, applicationID)

			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(2))
			Expect(trail[0].Step).To(Equal(1))
			Expect(trail[0].ResultingStatus).To(Equal(leaveDatamodel.StatusPending))
			Expect(trail[1].Step).To(Equal(2))
			Expect(trail[1].ResultingStatus).To(Equal(leaveDatamodel.StatusApproved))
		})

		It("stops managers from acting beyond the first step", func() {
			_, err := service.Approve(context.Background(), actorManager, applicationID, "")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Approve(context.Background(), actorManager, applicationID, "")

			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("stops managers who do not manage the applicant", func() {
			_, err := service.Approve(context.Background(), actorOtherMgr, applicationID, "")

			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("stops the applicant approving their own request", func() {
			_, err := service.Approve(context.Background(), actorEmp, applicationID, "")

			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("refuses terminal applications", func() {
			_, err := service.Reject(context.Background(), actorManager, applicationID, "no cover")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Approve(context.Background(), actorManager, applicationID, "")

			Expect(err).To(Equal(internal.ErrInvalidApplicationState))
		})
	})

	Describe("Reject", func() {
		It("terminates the application and returns the reservation", func() {
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))
			Expect(err).ToNot(HaveOccurred())

			rejected, err := service.Reject(context.Background(), actorManager, app.ID, "project deadline")

			Expect(err).ToNot(HaveOccurred())
			Expect(rejected.Status).To(Equal(leaveDatamodel.StatusRejected))

			b := balance(1, typeEarned)
			Expect(b.PendingApproval.IsZero()).To(BeTrue())
			Expect(b.Available.String()).To(Equal("6"))
		})
	})

	Describe("Cancel", func() {
		var applicationID int64

		BeforeEach(func() {
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))
			Expect(err).ToNot(HaveOccurred())
			applicationID = app.ID
		})

		It("deletes the pending application and releases the days", func() {
			Expect(service.Cancel(context.Background(), actorEmp, applicationID)).To(Succeed())

			_, err := mockApps.GetByID(applicationID)
			Expect(err).To(Equal(internal.ErrApplicationNotFound))

			b := balance(1, typeEarned)
			Expect(b.PendingApproval.IsZero()).To(BeTrue())
			Expect(b.Available.String()).To(Equal("6"))
		})

		It("is owner-only", func() {
			err := service.Cancel(context.Background(), actorEmpF, applicationID)

			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("refuses approved applications", func() {
			_, err := service.Approve(context.Background(), actorManager, applicationID, "")
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Approve(context.Background(), actorAdmin, applicationID, "")
			Expect(err).ToNot(HaveOccurred())

			err = service.Cancel(context.Background(), actorEmp, applicationID)

			Expect(err).To(Equal(internal.ErrInvalidApplicationState))
		})
	})

	Describe("Recall", func() {
		var applicationID int64

		BeforeEach(func() {
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))
			Expect(err).ToNot(HaveOccurred())
			applicationID = app.ID
			_, err = service.Approve(context.Background(), actorManager, applicationID, "")
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Approve(context.Background(), actorAdmin, applicationID, "")
			Expect(err).ToNot(HaveOccurred())
		})

		It("shortens the leave and returns the unused days", func() {
			// recall effective Wednesday the 12th: Mon-Wed stay taken
			app, err := service.Recall(context.Background(), actorManager, applicationID, leave.RecallDTO{
				RecallDate: date(12),
				Reason:     "production incident",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(app.Status).To(Equal(leaveDatamodel.StatusRecalled))
			Expect(app.NumberOfDays.String()).To(Equal("3"))
			Expect(app.ToDate).To(Equal(date(12)))

			b := balance(1, typeEarned)
			Expect(b.Taken.String()).To(Equal("3"))
			Expect(b.Available.String()).To(Equal("3"))
		})

		It("appends the recall to the approval trail", func() {
			_, err := service.Recall(context.Background(), actorManager, applicationID, leave.RecallDTO{
				RecallDate: date(12),
				Reason:     "production incident",
			})
			Expect(err).ToNot(HaveOccurred())

			trail, err := service.ApprovalTrail(actorEmp, applicationID)
			Expect(err).ToNot(HaveOccurred())
			last := trail[len(trail)-1]
			Expect(last.ResultingStatus).To(Equal(leaveDatamodel.StatusRecalled))
			Expect(last.Comments).To(Equal("production incident"))
		})

		It("rejects recall dates outside the leave period", func() {
			_, err := service.Recall(context.Background(), actorManager, applicationID, leave.RecallDTO{
				RecallDate: date(14),
				Reason:     "production incident",
			})

			Expect(err).To(Equal(internal.ErrInvalidRecallDate))
		})

		It("refuses pending applications", func() {
			pending, err := service.Apply(context.Background(), actorEmpF, applyDTO(typeCasual, 24, 25))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Recall(context.Background(), actorManager, pending.ID, leave.RecallDTO{
				RecallDate: date(24),
				Reason:     "production incident",
			})

			Expect(err).To(Equal(internal.ErrInvalidApplicationState))
		})
	})

	Describe("Update", func() {
		var applicationID int64

		BeforeEach(func() {
			app, err := service.Apply(context.Background(), actorEmp, applyDTO(typeCasual, 10, 11))
			Expect(err).ToNot(HaveOccurred())
			applicationID = app.ID
		})

		It("moves the reservation when the leave type changes", func() {
			app, err := service.Update(context.Background(), actorEmp, applicationID, applyDTO(typeEarned, 17, 18))

			Expect(err).ToNot(HaveOccurred())
			Expect(app.LeaveTypeID).To(Equal(typeEarned))
			Expect(app.FromDate).To(Equal(date(17)))
			Expect(app.NumberOfDays.String()).To(Equal("2"))
			Expect(app.CurrentApprovalStep).To(Equal(1))

			Expect(balance(1, typeCasual).PendingApproval.IsZero()).To(BeTrue())
			Expect(balance(1, typeEarned).PendingApproval.String()).To(Equal("2"))
		})

		It("is owner-only", func() {
			_, err := service.Update(context.Background(), actorEmpF, applicationID, applyDTO(typeEarned, 17, 18))

			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("refuses non-pending applications", func() {
			_, err := service.Approve(context.Background(), actorManager, applicationID, "")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Update(context.Background(), actorEmp, applicationID, applyDTO(typeEarned, 17, 18))

			Expect(err).To(Equal(internal.ErrInvalidApplicationState))
		})

		It("re-runs policy checks against the new values", func() {
			_, err := service.Update(context.Background(), actorEmp, applicationID, applyDTO(typeCasual, 10, 14))

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeExceedsConsecutiveLimit))
		})
	})

	Describe("queries", func() {
		BeforeEach(func() {
			_, err := service.Apply(context.Background(), actorEmp, applyDTO(typeEarned, 10, 14))
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Apply(context.Background(), actorEmpF, applyDTO(typeCasual, 24, 25))
			Expect(err).ToNot(HaveOccurred())
		})

		It("lists the actor's own applications", func() {
			apps, err := service.MyApplications(actorEmp, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(apps).To(HaveLen(1))
			Expect(apps[0].EmployeeID).To(Equal(actorEmp.EmployeeID))
		})

		It("lists direct reports for managers", func() {
			apps, err := service.TeamApplications(actorManager, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(apps).To(HaveLen(2))
		})

		It("refuses team listings for plain employees", func() {
			_, err := service.TeamApplications(actorEmp, nil)

			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("restricts the full listing to admins", func() {
			_, err := service.AllApplications(actorManager, nil)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))

			apps, err := service.AllApplications(actorAdmin, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(apps).To(HaveLen(2))
		})

		It("lists pending approvals for approvers only", func() {
			apps, err := service.PendingApprovals(actorAdmin)
			Expect(err).ToNot(HaveOccurred())
			Expect(apps).To(HaveLen(2))

			_, err = service.PendingApprovals(actorEmp)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("aggregates stats for managers", func() {
			stats, err := service.Stats(actorManager, 2024)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.TotalEmployees).To(Equal(5))
			Expect(stats.PendingApplications).To(Equal(int64(2)))
		})

		It("refuses stats for plain employees", func() {
			_, err := service.Stats(actorEmp, 2024)

			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})
})
