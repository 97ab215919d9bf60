package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account classes. Every switch over Role must
// handle all three values; access rules are keyed on it.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
)

// Roles lists every valid role in a stable order.
var Roles = []Role{RoleAdmin, RoleEmployer, RoleJobSeeker}

// ParseRole converts a raw string (case-insensitive) into a Role.  An empty
// string yields RoleJobSeeker, which is the default for new accounts.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return RoleJobSeeker, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleEmployer:
		return RoleEmployer, nil
	case RoleJobSeeker:
		return RoleJobSeeker, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployer, RoleJobSeeker:
		return true
	}
	return false
}

// User mirrors the `users` table.  PasswordHash never leaves the server.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone_number"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login"`
}

// FullName joins first and last name the way applicant names are shown to employers.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserProfile is the optional one-to-one extension of a user.  File fields
// hold storage keys, not URLs.
type UserProfile struct {
	UserID          string    `json:"user_id"`
	Bio             string    `json:"bio"`
	ProfilePicture  string    `json:"profile_picture"`
	Resume          string    `json:"resume"`
	LinkedInURL     string    `json:"linkedin_url"`
	Skills          string    `json:"skills"`
	ExperienceYears int       `json:"experience_years"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SkillList splits the comma separated skills column into trimmed entries.
func (p UserProfile) SkillList() []string {
	return splitComma(p.Skills)
}

func splitComma(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
