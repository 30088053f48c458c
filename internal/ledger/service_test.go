package ledger_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/employee"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/ledger"
)

// Fake transaction manager: runs the closure inline, no database.
type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// Mock balance repository keyed by (employee, type, year).
type mockBalanceRepository struct {
	balances map[string]*ledger.Balance
}

func newMockBalanceRepository() *mockBalanceRepository {
	return &mockBalanceRepository{balances: make(map[string]*ledger.Balance)}
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

// Mock leave type repository backed by a slice.
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

// Mock employee repository backed by a map.
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

var _ = Describe("LedgerService", func() {
	var (
		service   *ledger.Service
		mockRepo  *mockBalanceRepository
		mockTypes *mockTypeRepository
		mockEmps  *mockEmployeeRepository
		bus       *events.EventBus
	)

	d := func(v string) decimal.Decimal {
		dec, err := decimal.NewFromString(v)
		Expect(err).ToNot(HaveOccurred())
		return dec
	}

	BeforeEach(func() {
		mockRepo = newMockBalanceRepository()
		mockTypes = &mockTypeRepository{}
		mockEmps = &mockEmployeeRepository{employees: map[int64]*employee.Employee{
			1: {ID: 1, FirstName: "Rina", LastName: "Hartati", DateOfJoining: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(logger)
		service = ledger.NewService(mockRepo, mockTypes, mockEmps, fakeTxManager{}, bus, logger)
		service.SetClock(func() time.Time {
			return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
		})
	})

	seedBalance := func(available string) *ledger.Balance {
		b := &ledger.Balance{EmployeeID: 1, LeaveTypeID: 1, LeaveYear: 2024, Accrued: d(available)}
		b.Recompute()
		mockRepo.balances[balanceKey(1, 1, 2024)] = b
		return b
	}

	Describe("ReserveTx", func() {
		It("moves days from available into pending approval", func() {
			seedBalance("6")

			b, err := service.ReserveTx(nil, 1, 1, 2024, d("2.5"), false)

			Expect(err).ToNot(HaveOccurred())
			Expect(b.PendingApproval.String()).To(Equal("2.5"))
			Expect(b.Available.String()).To(Equal("3.5"))
		})

		It("fails when available does not cover the request", func() {
			seedBalance("2")

			_, err := service.ReserveTx(nil, 1, 1, 2024, d("3"), false)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInsufficientBalance))
		})

		It("allows going negative for types that permit it", func() {
			seedBalance("0")

			b, err := service.ReserveTx(nil, 1, 1, 2024, d("3"), true)

			Expect(err).ToNot(HaveOccurred())
			Expect(b.Available.String()).To(Equal("-3"))
		})

		It("creates the ledger row when none exists", func() {
			_, err := service.ReserveTx(nil, 1, 1, 2024, d("1"), true)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.balances).To(HaveKey(balanceKey(1, 1, 2024)))
		})
	})

	Describe("CommitTx", func() {
		It("moves pending approval into taken without changing available", func() {
			seedBalance("6")
			_, err := service.ReserveTx(nil, 1, 1, 2024, d("2"), false)
			Expect(err).ToNot(HaveOccurred())

			b, err := service.CommitTx(nil, 1, 1, 2024, d("2"))

			Expect(err).ToNot(HaveOccurred())
			Expect(b.PendingApproval.IsZero()).To(BeTrue())
			Expect(b.Taken.String()).To(Equal("2"))
			Expect(b.Available.String()).To(Equal("4"))
		})

		It("raises a consistency fault when the commit exceeds the reservation", func() {
			seedBalance("6")

			_, err := service.CommitTx(nil, 1, 1, 2024, d("2"))

			Expect(err).To(HaveOccurred())
			Expect(internal.IsConsistencyFault(err)).To(BeTrue())
		})
	})

	Describe("ReleasePendingTx", func() {
		It("returns reserved days to available", func() {
			seedBalance("6")
			_, err := service.ReserveTx(nil, 1, 1, 2024, d("4"), false)
			Expect(err).ToNot(HaveOccurred())

			b, err := service.ReleasePendingTx(nil, 1, 1, 2024, d("4"))

			Expect(err).ToNot(HaveOccurred())
			Expect(b.PendingApproval.IsZero()).To(BeTrue())
			Expect(b.Available.String()).To(Equal("6"))
		})

		It("raises a consistency fault when releasing more than reserved", func() {
			seedBalance("6")

			_, err := service.ReleasePendingTx(nil, 1, 1, 2024, d("1"))

			Expect(err).To(HaveOccurred())
			Expect(internal.IsConsistencyFault(err)).To(BeTrue())
		})
	})

	Describe("ReleaseTakenTx", func() {
		It("returns committed days to available on recall", func() {
			seedBalance("6")
			_, err := service.ReserveTx(nil, 1, 1, 2024, d("5"), false)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.CommitTx(nil, 1, 1, 2024, d("5"))
			Expect(err).ToNot(HaveOccurred())

			b, err := service.ReleaseTakenTx(nil, 1, 1, 2024, d("3"))

			Expect(err).ToNot(HaveOccurred())
			Expect(b.Taken.String()).To(Equal("2"))
			Expect(b.Available.String()).To(Equal("4"))
		})

		It("raises a consistency fault when releasing more than taken", func() {
			seedBalance("6")

			_, err := service.ReleaseTakenTx(nil, 1, 1, 2024, d("1"))

			Expect(err).To(HaveOccurred())
			Expect(internal.IsConsistencyFault(err)).To(BeTrue())
		})
	})

	Describe("CreditTx", func() {
		It("grows accrued and available by the credited amount", func() {
			b, err := service.CreditTx(nil, 1, 2, 2024, d("1"))

			Expect(err).ToNot(HaveOccurred())
			Expect(b.Accrued.String()).To(Equal("1"))
			Expect(b.Available.String()).To(Equal("1"))
		})
	})

	Describe("RefreshAccrual", func() {
		BeforeEach(func() {
			mockTypes.types = []*leavetype.LeaveType{
				{ID: 1, Name: leaveDatamodel.TypeEarnedLeave, AnnualEntitlement: 12, AccrualMethod: leaveDatamodel.AccrualMethodMonthly},
				{ID: 2, Name: leaveDatamodel.TypeCompensatoryOff, AnnualEntitlement: 0, AccrualMethod: leaveDatamodel.AccrualMethodManual},
				{ID: 3, Name: leaveDatamodel.TypeRestrictedHoliday, AnnualEntitlement: 2, AccrualMethod: leaveDatamodel.AccrualMethodAnnual},
			}
		})

		It("accrues monthly types pro-rata up to the current month", func() {
			err := service.RefreshAccrual(context.Background(), 1, 2024)

			Expect(err).ToNot(HaveOccurred())
			b, err := service.GetBalance(1, 1, 2024)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.Accrued.String()).To(Equal("6"))
			Expect(b.Available.String()).To(Equal("6"))
		})

		It("grants annual types their flat entitlement", func() {
			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())

			b, err := service.GetBalance(1, 3, 2024)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.Accrued.String()).To(Equal("2"))
		})

		It("never auto-accrues compensatory off", func() {
			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())

			b, err := service.GetBalance(1, 2, 2024)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.Accrued.IsZero()).To(BeTrue())
		})

		It("is idempotent", func() {
			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())
			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())

			b, err := service.GetBalance(1, 1, 2024)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.Accrued.String()).To(Equal("6"))
		})

		It("announces a refresh that changed accruals and stays quiet otherwise", func() {
			seen := make(chan string, 2)
			bus.Subscribe(events.AccrualRefreshed, func(ctx context.Context, e events.Event) error {
				seen <- e.EventType()
				return nil
			})

			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())
			Eventually(seen).Should(Receive(Equal(events.AccrualRefreshed)))

			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())
			Consistently(seen).ShouldNot(Receive())
		})

		It("preserves usage while refreshing", func() {
			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())
			_, err := service.ReserveTx(nil, 1, 1, 2024, d("2"), false)
			Expect(err).ToNot(HaveOccurred())

			Expect(service.RefreshAccrual(context.Background(), 1, 2024)).To(Succeed())

			b, err := service.GetBalance(1, 1, 2024)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.PendingApproval.String()).To(Equal("2"))
			Expect(b.Available.String()).To(Equal("4"))
		})
	})

	Describe("concurrent reservations on one key", func() {
		It("lets exactly one of two competing requests through", func() {
			seedBalance("1")

			var wg sync.WaitGroup
			errs := make(chan error, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock := service.Lock(1, 1, 2024)
					defer unlock()
					_, err := service.ReserveTx(nil, 1, 1, 2024, d("1"), false)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			var failures int
			for err := range errs {
				if err != nil {
					failures++
					appErr, ok := internal.IsAppError(err)
					Expect(ok).To(BeTrue())
					Expect(appErr.Code).To(Equal(internal.ErrCodeInsufficientBalance))
				}
			}
			Expect(failures).To(Equal(1))

			b, err := service.GetBalance(1, 1, 2024)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.Available.IsZero()).To(BeTrue())
			Expect(b.PendingApproval.String()).To(Equal("1"))
		})
	})
})
