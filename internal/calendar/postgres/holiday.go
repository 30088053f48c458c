package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/calendar"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type HolidayRepository struct {
	db *gorm.DB
}

func NewHolidayRepository(db *gorm.DB) calendar.Repository {
	return &HolidayRepository{db: db}
}

func (r *HolidayRepository) ListBetween(from, to time.Time) ([]*calendar.PublicHoliday, error) {
	var holidays []*calendar.PublicHoliday
	err := r.db.Where("holiday_date >= ? AND holiday_date <= ?", from, to).
		Order("holiday_date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *HolidayRepository) ListByYear(year int) ([]*calendar.PublicHoliday, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return r.ListBetween(start, end)
}

func (r *HolidayRepository) GetByID(id int64) (*calendar.PublicHoliday, error) {
	var h calendar.PublicHoliday
	err := r.db.Where("id = ?", id).First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrHolidayNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *HolidayRepository) GetRestrictedOn(date time.Time) (*calendar.PublicHoliday, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var h calendar.PublicHoliday
	err := r.db.Where("is_restricted = ? AND holiday_date >= ? AND holiday_date < ?", true, dayStart, dayEnd).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *HolidayRepository) Create(h *calendar.PublicHoliday) error {
	return r.db.Create(h).Error
}

func (r *HolidayRepository) Update(h *calendar.PublicHoliday) error {
	return r.db.Save(h).Error
}

func (r *HolidayRepository) Delete(id int64) error {
	return r.db.Where("id = ?", id).Delete(&leaveDatamodel.PublicHoliday{}).Error
}
