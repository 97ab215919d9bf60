// Package access holds the role capability matrix.  Role checks answer "may
// this class of user attempt the action at all"; ownership of a specific
// object is checked by the service that loads it.
package access

import (
	"errors"

	"github.com/iliyamo/job-board/internal/model"
)

// Action is a capability granted to roles.
type Action string

const (
	ManageUsers         Action = "users.manage"
	ReadIndustries      Action = "industries.read"
	ManageIndustries    Action = "industries.manage"
	ManageLocations     Action = "locations.manage"
	ManageCompanies     Action = "companies.manage"
	ReadCatalog         Action = "catalog.read_all"
	PostJobs            Action = "jobs.post"
	ModifyJobs          Action = "jobs.modify"
	ReadJobs            Action = "jobs.read"
	ApplyToJobs         Action = "applications.apply"
	ReadOwnApplications Action = "applications.read_own"
	ReadJobApplications Action = "applications.read_for_jobs"
	ReviewApplications  Action = "applications.review"
	ManageOwnProfile    Action = "profile.manage"
)

// Actions lists every declared action.
var Actions = []Action{
	ManageUsers, ReadIndustries, ManageIndustries, ManageLocations, ManageCompanies,
	ReadCatalog, PostJobs, ModifyJobs, ReadJobs, ApplyToJobs, ReadOwnApplications,
	ReadJobApplications, ReviewApplications, ManageOwnProfile,
}

var ErrInsufficientRole = errors.New("insufficient role")

// Actor is the authenticated requester.
type Actor struct {
	ID   string
	Role model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Owns reports whether the actor is the recorded owner of an object.
func (a Actor) Owns(ownerID string) bool { return ownerID != "" && a.ID == ownerID }

// Can reports whether role may perform action.  Unknown roles get nothing.
func Can(role model.Role, action Action) bool {
	switch role {
	case model.RoleAdmin:
		switch action {
		case ManageUsers, ReadIndustries, ManageIndustries, ReadCatalog,
			ModifyJobs, ReadJobs, ReadJobApplications, ManageOwnProfile:
			return true
		}
	case model.RoleEmployer:
		switch action {
		case ReadIndustries, ManageLocations, ManageCompanies, PostJobs,
			ModifyJobs, ReadJobs, ReadJobApplications, ReviewApplications, ManageOwnProfile:
			return true
		}
	case model.RoleJobSeeker:
		switch action {
		case ApplyToJobs, ReadOwnApplications, ManageOwnProfile:
			return true
		}
	}
	return false
}

// CanAny is true when role holds at least one of actions.
func CanAny(role model.Role, actions ...Action) bool {
	for _, a := range actions {
		if Can(role, a) {
			return true
		}
	}
	return false
}

// Authorize returns ErrInsufficientRole unless the actor holds one of actions.
func Authorize(a Actor, actions ...Action) error {
	if !CanAny(a.Role, actions...) {
		return ErrInsufficientRole
	}
	return nil
}
