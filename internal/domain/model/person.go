package model

import "time"

type Role string

const (
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
	RoleHrAdmin  Role = "HrAdmin"
)

// 許可されたロールかどうか（自由文字列は拒否する）
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHrAdmin:
		return true
	default:
		return false
	}
}

type Person struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	FirstName    string    `json:"firstName" gorm:"not null"`
	LastName     string    `json:"lastName" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	JobTitle     string    `json:"jobTitle" gorm:"not null"`
	Salary       float64   `json:"salary" gorm:"not null"`
	Department   string    `json:"department" gorm:"not null"`
	Role         Role      `json:"role" gorm:"type:varchar(20);not null;default:'Employee'"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
