package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/utils"
)

func registerInput(username, email string, phone *string) RegisterInput {
	return RegisterInput{
		Username:        username,
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           email,
		Phone:           phone,
		Password:        goodPassword,
		ConfirmPassword: goodPassword,
	}
}

func strPtr(s string) *string { return &s }

func Test_Register_ThenLogin_ShouldSucceed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u, err := h.accounts.Register(ctx, registerInput(" Jane Doe ", "Jane@Example.com", strPtr("+254712345678")))
	require.NoError(t, err)
	assert.Equal(t, "janedoe", u.Username)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, model.RoleJobSeeker, u.Role)
	assert.NotEqual(t, goodPassword, u.PasswordHash)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, goodPassword))

	session, err := h.accounts.Login(ctx, "JaneDoe", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)
	assert.NotNil(t, session.User.LastLogin)

	claims, err := utils.ParseAccessToken("test-secret-0123456789", session.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, string(model.RoleJobSeeker), claims.Role)
	assert.NotEmpty(t, session.Refresh.Raw)
}

func Test_Register_WhenIdentityTaken_ShouldFailWithoutCreating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.accounts.Register(ctx, registerInput("jane", "jane@example.com", strPtr("+254712345678")))
	require.NoError(t, err)

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"username", registerInput("JANE", "other@example.com", nil), "username"},
		{"email", registerInput("other", "JANE@example.com", nil), "email"},
		{"phone", registerInput("other", "other@example.com", strPtr("+254712345678")), "phone_number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.accounts.Register(ctx, tc.in)
			require.Equal(t, KindValidation, kindOf(t, err))
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Fields, tc.field)
			assert.Len(t, h.db.users, 1)
		})
	}
}

func Test_Register_PhoneFormat(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"+254712345678", true},
		{"0712345678", false},
		{"+25471234567", false},
		{"+2547123456789", false},
	}
	for _, tc := range cases {
		t.Run(tc.phone, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.accounts.Register(context.Background(), registerInput("jane", "jane@example.com", strPtr(tc.phone)))
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, []string{msgInvalidPhone}, se.Fields["phone_number"])
		})
	}
}

func Test_Register_WhenPasswordsDiffer_ShouldFail(t *testing.T) {
	h := newHarness(t)
	in := registerInput("jane", "jane@example.com", nil)
	in.ConfirmPassword = "something-else-1"

	_, err := h.accounts.Register(context.Background(), in)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{msgPasswordMismatch}, se.Fields["confirm_password"])
	assert.Empty(t, h.db.users)
}

func Test_Register_WhenWeakPassword_ShouldListRules(t *testing.T) {
	h := newHarness(t)
	in := registerInput("jane", "jane@example.com", nil)
	in.Password, in.ConfirmPassword = "1234567", "1234567"

	_, err := h.accounts.Register(context.Background(), in)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.ElementsMatch(t, []string{
		"This password is too short. It must contain at least 8 characters.",
		"This password is too common.",
		"This password is entirely numeric.",
	}, se.Fields["password"])
}

func Test_Register_WhenAdminRole_ShouldFail(t *testing.T) {
	h := newHarness(t)
	in := registerInput("jane", "jane@example.com", nil)
	in.Role = "admin"

	_, err := h.accounts.Register(context.Background(), in)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Fields, "role")
}

func Test_Login_WhenWrongPassword_ShouldFailWithInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.register(t, "jane", model.RoleJobSeeker)

	_, err := h.accounts.Login(context.Background(), "jane", "wrong-password")
	assert.Equal(t, KindAuth, kindOf(t, err))
	assert.Contains(t, err.Error(), msgInvalidCreds)

	_, err = h.accounts.Login(context.Background(), "nobody", goodPassword)
	assert.Equal(t, KindAuth, kindOf(t, err))
}

func Test_Login_WhenDisabled_ShouldFail(t *testing.T) {
	h := newHarness(t)
	jane := h.register(t, "jane", model.RoleJobSeeker)
	require.NoError(t, h.accounts.DeactivateUser(context.Background(), h.admin(t), jane.ID))

	_, err := h.accounts.Login(context.Background(), "jane", goodPassword)
	assert.Equal(t, KindAuth, kindOf(t, err))
	assert.Contains(t, err.Error(), msgAccountDisabled)
}

func Test_Refresh_ShouldRotateToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "jane", model.RoleJobSeeker)
	session, err := h.accounts.Login(ctx, "jane", goodPassword)
	require.NoError(t, err)

	next, err := h.accounts.Refresh(ctx, session.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, session.Refresh.Raw, next.Refresh.Raw)

	_, err = h.accounts.Refresh(ctx, session.Refresh.Raw)
	assert.Equal(t, KindUnauthorized, kindOf(t, err))
}

func Test_Logout_WithoutToken_ShouldRevokeAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	jane := h.register(t, "jane", model.RoleJobSeeker)
	_, err := h.accounts.Login(ctx, "jane", goodPassword)
	require.NoError(t, err)
	_, err = h.accounts.Login(ctx, "jane", goodPassword)
	require.NoError(t, err)

	require.NoError(t, h.accounts.Logout(ctx, "", &jane))
	assert.Equal(t, 0, memTokens{h.db}.active(jane.ID))
}

func Test_UpdateMe_WhenPhoneInvalid_ShouldFail(t *testing.T) {
	h := newHarness(t)
	jane := h.register(t, "jane", model.RoleJobSeeker)

	_, err := h.accounts.UpdateMe(context.Background(), jane, UpdateMeInput{Phone: strPtr("12345")})
	assert.Equal(t, KindValidation, kindOf(t, err))

	u, err := h.accounts.UpdateMe(context.Background(), jane, UpdateMeInput{FirstName: strPtr("Janet"), Phone: strPtr("+254700000001")})
	require.NoError(t, err)
	assert.Equal(t, "Janet", u.FirstName)
	assert.Equal(t, "+254700000001", *u.Phone)
}

func Test_UpdateProfile_WhenExperienceOverLimit_ShouldFail(t *testing.T) {
	h := newHarness(t)
	jane := h.register(t, "jane", model.RoleJobSeeker)

	years := MaxExperienceYears + 1
	_, err := h.accounts.UpdateProfile(context.Background(), jane, ProfileInput{ExperienceYears: &years})
	assert.Equal(t, KindValidation, kindOf(t, err))

	years = 12
	p, err := h.accounts.UpdateProfile(context.Background(), jane, ProfileInput{ExperienceYears: &years})
	require.NoError(t, err)
	assert.Equal(t, 12, p.ExperienceYears)
}

func Test_UploadProfileFile_ShouldReplaceOldFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	jane := h.register(t, "jane", model.RoleJobSeeker)

	p, err := h.accounts.UploadProfileFile(ctx, jane, ProfileResume, "cv.pdf", resume("cv.pdf").Content)
	require.NoError(t, err)
	assert.Equal(t, "resumes/user_"+jane.ID+"/cv.pdf", p.Resume)

	p, err = h.accounts.UploadProfileFile(ctx, jane, ProfileResume, "cv.pdf", resume("cv.pdf").Content)
	require.NoError(t, err)
	assert.NotEqual(t, "resumes/user_"+jane.ID+"/cv.pdf", p.Resume)
	assert.Equal(t, 1, h.files.count())
}

func Test_UpdateUser_WhenAdminTargetsSelf_ShouldForbid(t *testing.T) {
	h := newHarness(t)
	root := h.admin(t)

	_, err := h.accounts.UpdateUser(context.Background(), root, root.ID, UpdateUserInput{Role: strPtr("employer")})
	assert.Equal(t, KindForbidden, kindOf(t, err))

	err = h.accounts.DeactivateUser(context.Background(), root, root.ID)
	assert.Equal(t, KindForbidden, kindOf(t, err))
}

func Test_DeactivateUser_ShouldRevokeTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	jane := h.register(t, "jane", model.RoleJobSeeker)
	_, err := h.accounts.Login(ctx, "jane", goodPassword)
	require.NoError(t, err)

	require.NoError(t, h.accounts.DeactivateUser(ctx, h.admin(t), jane.ID))
	assert.Equal(t, 0, memTokens{h.db}.active(jane.ID))
	assert.False(t, h.db.users[jane.ID].IsActive)
}

func Test_UserManagement_WhenNotAdmin_ShouldDenyRole(t *testing.T) {
	h := newHarness(t)
	e := h.register(t, "boss", model.RoleEmployer)

	_, err := h.accounts.ListUsers(context.Background(), e, repository.UserQuery{})
	assert.ErrorIs(t, err, ErrInsufficientRole)
}

func Test_EnsureAdmin_ShouldCreateOnceAndPromote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cfg := config.AdminConfig{Username: "boss", Email: "boss@example.com", Password: goodPassword}

	require.NoError(t, h.accounts.EnsureAdmin(ctx, cfg))
	require.NoError(t, h.accounts.EnsureAdmin(ctx, cfg))
	require.Len(t, h.db.users, 1)
	for _, u := range h.db.users {
		assert.Equal(t, model.RoleAdmin, u.Role)
	}

	other := newHarness(t)
	e := other.register(t, "boss", model.RoleEmployer)
	require.NoError(t, other.accounts.EnsureAdmin(ctx, cfg))
	assert.Equal(t, model.RoleAdmin, other.db.users[e.ID].Role)

	assert.NoError(t, h.accounts.EnsureAdmin(ctx, config.AdminConfig{}))
}
