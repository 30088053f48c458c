package credit

import (
	"time"

	"github.com/frahmantamala/leave-management/internal"
)

// CreditRequestDTO is the request payload for claiming a compensatory
// day off for a date worked.
type CreditRequestDTO struct {
	DateWorked time.Time `json:"date_worked"`
	Reason     string    `json:"reason"`
}

func (dto CreditRequestDTO) Validate() error {
	if dto.DateWorked.IsZero() {
		return internal.NewValidationError("date worked is required", internal.ErrCodeValidationFailed)
	}
	if dto.Reason == "" {
		return internal.NewValidationError("reason is required", internal.ErrCodeValidationFailed)
	}
	return nil
}
