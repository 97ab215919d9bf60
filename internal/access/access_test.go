package access

import (
	"testing"

	"github.com/iliyamo/job-board/internal/model"
	"github.com/stretchr/testify/assert"
)

func Test_Can_MatchesCapabilityMatrix(t *testing.T) {
	grants := map[model.Role][]Action{
		model.RoleAdmin: {ManageUsers, ReadIndustries, ManageIndustries, ReadCatalog,
			ModifyJobs, ReadJobs, ReadJobApplications, ManageOwnProfile},
		model.RoleEmployer: {ReadIndustries, ManageLocations, ManageCompanies, PostJobs,
			ModifyJobs, ReadJobs, ReadJobApplications, ReviewApplications, ManageOwnProfile},
		model.RoleJobSeeker: {ApplyToJobs, ReadOwnApplications, ManageOwnProfile},
	}

	for _, role := range model.Roles {
		granted := map[Action]bool{}
		for _, a := range grants[role] {
			granted[a] = true
		}
		for _, action := range Actions {
			assert.Equal(t, granted[action], Can(role, action), "%s / %s", role, action)
		}
	}
}

func Test_Can_WhenRoleUnknown_ShouldDenyEverything(t *testing.T) {
	for _, action := range Actions {
		assert.False(t, Can(model.Role("owner"), action))
	}
}

func Test_Authorize(t *testing.T) {
	seeker := Actor{ID: "u1", Role: model.RoleJobSeeker}
	assert.NoError(t, Authorize(seeker, ApplyToJobs))
	assert.ErrorIs(t, Authorize(seeker, PostJobs), ErrInsufficientRole)
	assert.NoError(t, Authorize(seeker, PostJobs, ReadOwnApplications))

	employer := Actor{ID: "u2", Role: model.RoleEmployer}
	assert.ErrorIs(t, Authorize(employer, ApplyToJobs), ErrInsufficientRole)
}

func Test_Actor_Owns(t *testing.T) {
	a := Actor{ID: "u1", Role: model.RoleEmployer}
	assert.True(t, a.Owns("u1"))
	assert.False(t, a.Owns("u2"))
	assert.False(t, Actor{}.Owns(""))
}
