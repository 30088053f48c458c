package calendar

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

var halfDay = decimal.NewFromFloat(0.5)

// Service resolves date ranges into working-day counts and administers
// the public holiday calendar.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// WorkingDays counts the days in [from, to] that fall Monday-Friday and
// are not non-restricted public holidays. Half-day mode is exactly 0.5
// regardless of span. A zero result is not an error here; callers decide.
func (s *Service) WorkingDays(from, to time.Time, durationType string) (decimal.Decimal, error) {
	if durationType == leaveDatamodel.DurationHalfDay {
		return halfDay, nil
	}

	if to.IsZero() {
		to = from
	}
	if to.Before(from) {
		return decimal.Zero, internal.NewValidationError("to date must not be before from date", internal.ErrCodeInvalidDateRange)
	}

	holidays, err := s.repo.ListBetween(from, to)
	if err != nil {
		return decimal.Zero, err
	}

	// Restricted holidays stay countable; they are optional leave
	// opportunities, not automatic days off.
	holidayDates := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		if !h.IsRestricted {
			holidayDates[DateKey(h.HolidayDate)] = struct{}{}
		}
	}

	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if _, isHoliday := holidayDates[DateKey(d)]; isHoliday {
			continue
		}
		count++
	}

	return decimal.NewFromInt(int64(count)), nil
}

// RestrictedHolidayOn returns the restricted holiday on the given date,
// or nil when the date is not a restricted holiday.
func (s *Service) RestrictedHolidayOn(date time.Time) (*PublicHoliday, error) {
	return s.repo.GetRestrictedOn(date)
}

func (s *Service) ListHolidays(year int) ([]*PublicHoliday, error) {
	return s.repo.ListByYear(year)
}

func (s *Service) CreateHoliday(actor internal.Actor, dto HolidayDTO) (*PublicHoliday, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	h := dto.toModel()
	if err := s.repo.Create(h); err != nil {
		s.logger.Error("failed to create holiday", "error", err, "date", DateKey(h.HolidayDate))
		return nil, err
	}

	s.logger.Info("holiday created", "holiday_id", h.ID, "date", DateKey(h.HolidayDate), "restricted", h.IsRestricted)
	return h, nil
}

func (s *Service) UpdateHoliday(actor internal.Actor, id int64, dto HolidayDTO) (*PublicHoliday, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	h, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	dto.apply(h)
	if err := s.repo.Update(h); err != nil {
		s.logger.Error("failed to update holiday", "error", err, "holiday_id", id)
		return nil, err
	}
	return h, nil
}

func (s *Service) DeleteHoliday(actor internal.Actor, id int64) error {
	if !actor.IsAdmin() {
		return internal.ErrUnauthorizedAccess
	}
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}
