package domain

import "time"

type Role string

const (
	RoleRegular      Role = "regular"
	RoleDiveOperator Role = "dive_operator"
	RoleAdmin        Role = "admin"
)

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
