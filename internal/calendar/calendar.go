package calendar

import (
	"time"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type PublicHoliday = leaveDatamodel.PublicHoliday

// Repository defines data access for the public holiday calendar.
type Repository interface {
	ListBetween(from, to time.Time) ([]*PublicHoliday, error)
	ListByYear(year int) ([]*PublicHoliday, error)
	GetByID(id int64) (*PublicHoliday, error)
	GetRestrictedOn(date time.Time) (*PublicHoliday, error)
	Create(h *PublicHoliday) error
	Update(h *PublicHoliday) error
	Delete(id int64) error
}

// DateKey normalizes a timestamp to its calendar day, ignoring the time
// and zone the driver happened to scan.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
