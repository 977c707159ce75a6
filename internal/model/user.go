package model

import "time"

type UserRole string

const (
	UserRoleAdmin       UserRole = "admin"
	UserRoleOrganizer   UserRole = "organizer"
	UserRoleParticipant UserRole = "participant"
)

// User 使用者資料，Department/Year 用於資格比對
type User struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Role       UserRole  `json:"role" db:"role"`
	Department string    `json:"department" db:"department"`
	Year       int       `json:"year" db:"year"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
