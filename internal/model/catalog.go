package model

import (
	"strings"
	"time"
)

// Industry mirrors the `industries` table.
type Industry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location is a place an employer operates from.  CreatedBy never changes.
type Location struct {
	ID        string    `json:"id"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	Region    string    `json:"region"`
	IsRemote  bool      `json:"is_remote"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// String renders "country, city[, region][ - Remote]".
func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.Country)
	b.WriteString(", ")
	b.WriteString(l.City)
	if l.Region != "" {
		b.WriteString(", ")
		b.WriteString(l.Region)
	}
	if l.IsRemote {
		b.WriteString(" - Remote")
	}
	return b.String()
}

// Company mirrors the `companies` table together with its linked locations.
// IndustryName is filled by read queries only.
type Company struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Logo         string     `json:"logo"`
	WebsiteURL   string     `json:"website_url"`
	IndustryID   string     `json:"industry_id"`
	IndustryName string     `json:"industry_name,omitempty"`
	IsVerified   bool       `json:"is_verified"`
	Locations    []Location `json:"locations"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// LocationIDs returns the ids of the linked locations in order.
func (c Company) LocationIDs() []string {
	ids := make([]string, 0, len(c.Locations))
	for _, l := range c.Locations {
		ids = append(ids, l.ID)
	}
	return ids
}
