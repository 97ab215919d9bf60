package service

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/logger"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/utils"
)

var phonePattern = regexp.MustCompile(`^\+254\d{9}$`)

const (
	msgInvalidPhone      = "Enter a valid phone number. +254*********"
	msgDuplicateUsername = "A user with this username already exists."
	msgDuplicateEmail    = "A user with this email already exists."
	msgDuplicatePhone    = "A user with this phone_number already exists."
	msgPasswordMismatch  = "Password confirmation does not match."
	msgInvalidCreds      = "Invalid Credentials"
	msgAccountDisabled   = "User account is disabled"
	msgInvalidRefresh    = "invalid refresh token"
)

// AccountService covers registration, sessions, the caller's own account and
// admin user management.
type AccountService struct {
	users    userStore
	profiles profileStore
	tokens   tokenStore
	files    fileStore
	policy   PasswordPolicy
	auth     config.AuthConfig
	now      func() time.Time
}

func NewAccountService(users userStore, profiles profileStore, tokens tokenStore, files fileStore,
	policy PasswordPolicy, auth config.AuthConfig) *AccountService {
	return &AccountService{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		files:    files,
		policy:   policy,
		auth:     auth,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeUsername lowercases and removes all spaces.
func NormalizeUsername(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// normalizePhone turns blank input into nil.
func normalizePhone(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

type RegisterInput struct {
	Username        string
	FirstName       string
	LastName        string
	Email           string
	Phone           *string
	Password        string
	ConfirmPassword string
	Role            string
}

// Register creates an account after every field rule passed.  Nothing is
// stored when any rule fails.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := NormalizeUsername(in.Username)
	email := normalizeEmail(in.Email)
	phone := normalizePhone(in.Phone)
	fields := FieldErrors{}

	if username == "" {
		fields.Add("username", "This field may not be blank.")
	}
	if phone != nil && !phonePattern.MatchString(*phone) {
		fields.Add("phone_number", msgInvalidPhone)
	}
	role, err := model.ParseRole(in.Role)
	if err != nil {
		fields.Add("role", fmt.Sprintf("%q is not a valid choice.", in.Role))
	} else if role == model.RoleAdmin {
		fields.Add("role", "Admin accounts cannot be self-registered.")
	}
	if in.Password != in.ConfirmPassword {
		fields.Add("confirm_password", msgPasswordMismatch)
	}
	for _, msg := range s.policy.Check(in.Password, PersonalInfo{
		Username: username, Email: email, FirstName: in.FirstName, LastName: in.LastName,
	}) {
		fields.Add("password", msg)
	}

	conflicts, err := s.users.FindConflicts(ctx, username, email, phone, "")
	if err != nil {
		return nil, errors.Wrap(err, "check user conflicts")
	}
	addConflictFields(fields, conflicts)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.auth.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	u := &model.User{
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if f := duplicateUserField(err); f != nil {
			return nil, f
		}
		return nil, errors.Wrap(err, "create user")
	}
	log.WithField("user_id", u.ID).Infof("registered %s account %s", u.Role, u.Username)
	return u, nil
}

func addConflictFields(fields FieldErrors, c repository.UserConflicts) {
	if c.Username {
		fields.Add("username", msgDuplicateUsername)
	}
	if c.Email {
		fields.Add("email", msgDuplicateEmail)
	}
	if c.Phone {
		fields.Add("phone_number", msgDuplicatePhone)
	}
}

// duplicateUserField maps a unique key race to the same field error the
// pre-check would have produced.
func duplicateUserField(err error) error {
	switch {
	case repository.IsDuplicateKey(err, repository.KeyUsername):
		return fieldError("username", msgDuplicateUsername)
	case repository.IsDuplicateKey(err, repository.KeyEmail):
		return fieldError("email", msgDuplicateEmail)
	case repository.IsDuplicateKey(err, repository.KeyPhone):
		return fieldError("phone_number", msgDuplicatePhone)
	}
	return nil
}

// Session is the token pair returned by login and refresh.
type Session struct {
	User    *model.User        `json:"user"`
	Access  utils.AccessToken  `json:"access"`
	Refresh utils.RefreshToken `json:"refresh"`
}

func (s *AccountService) issue(ctx context.Context, u *model.User) (*Session, error) {
	accessTok, err := utils.NewAccessToken(s.auth.JWTSecret, u.ID, string(u.Role), s.auth.AccessTTLMin)
	if err != nil {
		return nil, errors.Wrap(err, "issue access token")
	}
	refresh, err := utils.NewRefreshToken(s.auth.RefreshTTLDays)
	if err != nil {
		return nil, errors.Wrap(err, "issue refresh token")
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, errors.Wrap(err, "store refresh token")
	}
	return &Session{User: u, Access: accessTok, Refresh: refresh}, nil
}

// Login verifies the password before looking at is_active, so a disabled
// account is only revealed to someone who knows its password.
func (s *AccountService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, Validation("Both username and password are required")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, authError(msgInvalidCreds)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, authError(msgInvalidCreds)
	}
	if !u.IsActive {
		return nil, authError(msgAccountDisabled)
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		log.WithError(err).WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error("failed to stamp last_login")
	} else {
		u.LastLogin = &now
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AccountService) Refresh(ctx context.Context, raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fieldError("refresh_token", "This field is required.")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized(msgInvalidRefresh)
	}
	if err != nil {
		return nil, errors.Wrap(err, "validate refresh token")
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, errors.Wrap(err, "revoke refresh token")
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized(msgInvalidRefresh)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if !u.IsActive {
		return nil, authError(msgAccountDisabled)
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token when given, otherwise every token of the
// authenticated actor.
func (s *AccountService) Logout(ctx context.Context, raw string, actor *access.Actor) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return unauthorized(msgInvalidRefresh)
			}
			return errors.Wrap(err, "validate refresh token")
		}
		return errors.Wrap(s.tokens.RevokeByHash(ctx, hash), "revoke refresh token")
	}
	if actor != nil {
		return errors.Wrap(s.tokens.RevokeAllForUser(ctx, actor.ID), "revoke user tokens")
	}
	return Validation("provide Authorization header or refresh_token")
}

func (s *AccountService) Me(ctx context.Context, actor access.Actor) (*model.User, error) {
	if err := authorize(actor, access.ManageOwnProfile); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, actor.ID)
}

func (s *AccountService) loadUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return u, nil
}

// UpdateMeInput carries the self-editable contact fields.  Nil means
// unchanged; an empty Phone clears it.
type UpdateMeInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

func (s *AccountService) UpdateMe(ctx context.Context, actor access.Actor, in UpdateMeInput) (*model.User, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		phone := normalizePhone(in.Phone)
		if phone != nil {
			if !phonePattern.MatchString(*phone) {
				return nil, fieldError("phone_number", msgInvalidPhone)
			}
			c, err := s.users.FindConflicts(ctx, "", "", phone, u.ID)
			if err != nil {
				return nil, errors.Wrap(err, "check phone conflict")
			}
			if c.Phone {
				return nil, fieldError("phone_number", msgDuplicatePhone)
			}
		}
		u.Phone = phone
	}
	if err := s.users.UpdateContact(ctx, u); err != nil {
		if f := duplicateUserField(err); f != nil {
			return nil, f
		}
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

func (s *AccountService) Profile(ctx context.Context, actor access.Actor) (*model.UserProfile, error) {
	if err := authorize(actor, access.ManageOwnProfile); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetOrCreate(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load profile")
	}
	return p, nil
}

type ProfileInput struct {
	Bio             *string
	LinkedInURL     *string
	Skills          *string
	ExperienceYears *int
}

func (s *AccountService) UpdateProfile(ctx context.Context, actor access.Actor, in ProfileInput) (*model.UserProfile, error) {
	p, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.LinkedInURL != nil {
		p.LinkedInURL = strings.TrimSpace(*in.LinkedInURL)
	}
	if in.Skills != nil {
		p.Skills = strings.Join(model.UserProfile{Skills: *in.Skills}.SkillList(), ", ")
	}
	if in.ExperienceYears != nil {
		fields := FieldErrors{}
		checkYears(fields, "experience_years", *in.ExperienceYears)
		if err := fields.Err(); err != nil {
			return nil, err
		}
		p.ExperienceYears = *in.ExperienceYears
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update profile")
	}
	return p, nil
}

type ProfileFile int

const (
	ProfilePicture ProfileFile = iota
	ProfileResume
)

// UploadProfileFile stores a picture or resume and points the profile at it.
// The previous file is removed once the profile row is updated.
func (s *AccountService) UploadProfileFile(ctx context.Context, actor access.Actor, kind ProfileFile,
	filename string, r io.Reader) (*model.UserProfile, error) {

	p, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	dir := "profile_pictures/user_" + actor.ID
	if kind == ProfileResume {
		dir = "resumes/user_" + actor.ID
	}
	key, err := s.files.Save(ctx, dir, filename, r)
	if err != nil {
		return nil, errors.Wrap(err, "store profile file")
	}

	var old string
	if kind == ProfileResume {
		old, p.Resume = p.Resume, key
	} else {
		old, p.ProfilePicture = p.ProfilePicture, key
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		_ = s.files.Delete(ctx, key)
		return nil, errors.Wrap(err, "update profile")
	}
	if old != "" && old != key {
		if err := s.files.Delete(ctx, old); err != nil {
			log.WithError(err).WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to remove %s", old)
		}
	}
	return p, nil
}

func (s *AccountService) ListUsers(ctx context.Context, actor access.Actor, q repository.UserQuery) (Page[model.User], error) {
	if err := authorize(actor, access.ManageUsers); err != nil {
		return Page[model.User]{}, err
	}
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return Page[model.User]{}, errors.Wrap(err, "list users")
	}
	return newPage(users, total, q.ListQuery), nil
}

func (s *AccountService) GetUser(ctx context.Context, actor access.Actor, id string) (*model.User, error) {
	if err := authorize(actor, access.ManageUsers); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

type UpdateUserInput struct {
	Role     *string
	IsActive *bool
}

// UpdateUser changes role and activation.  Admins cannot change their own
// role or deactivate themselves.
func (s *AccountService) UpdateUser(ctx context.Context, actor access.Actor, id string, in UpdateUserInput) (*model.User, error) {
	u, err := s.GetUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	role, active := u.Role, u.IsActive
	if in.Role != nil {
		parsed, err := model.ParseRole(*in.Role)
		if err != nil || strings.TrimSpace(*in.Role) == "" {
			return nil, fieldError("role", fmt.Sprintf("%q is not a valid choice.", *in.Role))
		}
		role = parsed
	}
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if u.ID == actor.ID && (role != u.Role || !active) {
		return nil, forbidden("admins cannot demote or deactivate themselves")
	}
	if err := s.users.UpdateAccess(ctx, u.ID, role, active); err != nil {
		return nil, errors.Wrap(err, "update user access")
	}
	if u.IsActive && !active {
		if err := s.tokens.RevokeAllForUser(ctx, u.ID); err != nil {
			return nil, errors.Wrap(err, "revoke user tokens")
		}
	}
	u.Role, u.IsActive = role, active
	log.WithField("user_id", u.ID).Infof("user access updated by %s: role=%s active=%t", actor.ID, role, active)
	return u, nil
}

// DeactivateUser is the soft delete behind DELETE /users/:id.
func (s *AccountService) DeactivateUser(ctx context.Context, actor access.Actor, id string) error {
	inactive := false
	_, err := s.UpdateUser(ctx, actor, id, UpdateUserInput{IsActive: &inactive})
	return err
}

// EnsureAdmin creates the configured admin account, or promotes and
// reactivates an existing account with that username.  It is safe to call
// on every start.
func (s *AccountService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if !cfg.Enabled() {
		return nil
	}
	username := NormalizeUsername(cfg.Username)
	u, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if u.Role == model.RoleAdmin && u.IsActive {
			return nil
		}
		log.Infof("promoting %s to admin", username)
		return errors.Wrap(s.users.UpdateAccess(ctx, u.ID, model.RoleAdmin, true), "promote admin")
	case !errors.Is(err, repository.ErrNotFound):
		return errors.Wrap(err, "load admin")
	}

	hash, err := utils.HashPassword(cfg.Password, s.auth.BcryptCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	admin := &model.User{
		Username:     username,
		Email:        normalizeEmail(cfg.Email),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return errors.Wrap(err, "create admin")
	}
	log.WithField("user_id", admin.ID).Infof("bootstrapped admin account %s", username)
	return nil
}
