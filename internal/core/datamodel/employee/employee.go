package employee

import "time"

// Employee is the directory record the engine reads for accrual and
// eligibility decisions. CRUD lives with the HR master-data service;
// this process only ever reads it.
type Employee struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	FirstName     string    `json:"first_name" gorm:"not null"`
	LastName      string    `json:"last_name" gorm:"not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	Gender        string    `json:"gender" gorm:"size:20"`
	DateOfJoining time.Time `json:"date_of_joining" gorm:"type:date;not null"`
	ManagerID     *int64    `json:"manager_id,omitempty" gorm:"index"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
