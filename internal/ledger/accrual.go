package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/events"
)

var twelve = decimal.NewFromInt(12)

// MonthlyAccrual computes the pro-rata accrual for a monthly leave type:
// annualEntitlement/12 per month from January through the target month
// (the current month for the current year, December for past years).
//
// Joining-month rule: months before the joining month contribute nothing;
// the joining month contributes the full rate when the employee joined on
// or before the 10th, half when joined on the 11th-20th, nothing from the
// 21st; months after the joining month contribute the full rate.
func MonthlyAccrual(annualEntitlement int, joining time.Time, year int, asOf time.Time) decimal.Decimal {
	monthlyRate := decimal.NewFromInt(int64(annualEntitlement)).Div(twelve)

	targetMonth := 12
	if year >= asOf.Year() {
		targetMonth = int(asOf.Month())
	}
	if joining.Year() > year {
		return decimal.Zero
	}

	total := decimal.Zero
	for month := 1; month <= targetMonth; month++ {
		if joining.Year() == year {
			if int(joining.Month()) > month {
				continue
			}
			if int(joining.Month()) == month {
				switch {
				case joining.Day() <= 10:
					total = total.Add(monthlyRate)
				case joining.Day() <= 20:
					total = total.Add(monthlyRate.Div(decimal.NewFromInt(2)))
				}
				continue
			}
		}
		total = total.Add(monthlyRate)
	}

	return total.Round(2)
}

// RefreshAccrual brings the accrued column up to date for every leave
// type for (employee, year), creating zero-initialized ledger rows where
// missing. Idempotent, safe to call before every balance read.
//
// Compensatory-Off and Loss-of-Pay are never auto-accrued: their rows
// are created but accrued stays whatever credits and usage made it.
func (s *Service) RefreshAccrual(ctx context.Context, employeeID int64, year int) error {
	emp, err := s.employees.GetByID(employeeID)
	if err != nil {
		return err
	}

	types, err := s.types.List()
	if err != nil {
		return err
	}

	asOf := s.now()
	changed := false

	for _, lt := range types {
		release := s.keys.Acquire(employeeID, lt.ID, year)

		err := s.txm.Do(ctx, func(tx *gorm.DB) error {
			balance, err := s.repo.GetOrCreateForUpdate(tx, employeeID, lt.ID, year)
			if err != nil {
				return err
			}
			before := balance.Accrued

			switch {
			case lt.Name == leaveDatamodel.TypeCompensatoryOff || lt.Name == leaveDatamodel.TypeLossOfPay:
				// manually adjusted only
			case lt.AccrualMethod == leaveDatamodel.AccrualMethodMonthly:
				balance.Accrued = MonthlyAccrual(lt.AnnualEntitlement, emp.DateOfJoining, year, asOf)
			case lt.AccrualMethod == leaveDatamodel.AccrualMethodAnnual:
				balance.Accrued = decimal.NewFromInt(int64(lt.AnnualEntitlement))
			default:
				// other manual types: flat entitlement assigned up front
				balance.Accrued = decimal.NewFromInt(int64(lt.AnnualEntitlement))
			}

			if !balance.Accrued.Equal(before) {
				changed = true
			}
			balance.Recompute()
			return s.repo.Save(tx, balance)
		})

		release()
		if err != nil {
			s.logger.Error("accrual refresh failed",
				"error", err,
				"employee_id", employeeID,
				"leave_type_id", lt.ID,
				"year", year)
			return err
		}
	}

	if changed {
		s.bus.Publish(ctx, events.NewLeaveEvent(events.AccrualRefreshed, employeeID, "leave_balance", employeeID, map[string]interface{}{
			"year": year,
		}))
	}
	return nil
}
