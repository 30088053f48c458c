package calendar

import (
	"time"

	"github.com/frahmantamala/leave-management/internal"
)

type HolidayDTO struct {
	Name         string    `json:"name"`
	HolidayDate  time.Time `json:"holiday_date"`
	HolidayType  string    `json:"holiday_type"`
	IsRestricted bool      `json:"is_restricted"`
	Description  *string   `json:"description,omitempty"`
	Recurring    bool      `json:"recurring"`
}

func (dto HolidayDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationError("holiday name is required", internal.ErrCodeValidationFailed)
	}
	if dto.HolidayDate.IsZero() {
		return internal.NewValidationError("holiday date is required", internal.ErrCodeValidationFailed)
	}
	if dto.HolidayType == "" {
		return internal.NewValidationError("holiday type is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (dto HolidayDTO) toModel() *PublicHoliday {
	h := &PublicHoliday{}
	dto.apply(h)
	return h
}

func (dto HolidayDTO) apply(h *PublicHoliday) {
	h.Name = dto.Name
	h.HolidayDate = dto.HolidayDate
	h.HolidayType = dto.HolidayType
	h.IsRestricted = dto.IsRestricted
	h.Description = dto.Description
	h.Recurring = dto.Recurring
}
