package model

import "time"

type Role string

const (
	RoleCommuter Role = "commuter"
	RoleOperator Role = "operator"
	RoleDriver   Role = "driver"
)

type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Role            Role      `json:"role,omitempty"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	SchoolName      string    `json:"school_name,omitempty"`
	ProfilePhotoURL string    `json:"profile_photo_url,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

func (u User) IsOperator() bool {
	return u.Role == RoleOperator
}
