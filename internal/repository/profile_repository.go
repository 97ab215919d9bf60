package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/job-board/internal/model"
)

type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = `user_id, bio, profile_picture, resume, linkedin_url, skills,
	experience_years, created_at, updated_at`

func (r *ProfileRepo) get(ctx context.Context, userID string) (*model.UserProfile, error) {
	var p model.UserProfile
	err := r.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM user_profiles WHERE user_id = ?", userID).
		Scan(&p.UserID, &p.Bio, &p.ProfilePicture, &p.Resume, &p.LinkedInURL, &p.Skills,
			&p.ExperienceYears, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

// GetOrCreate returns the user's profile, inserting an empty one on first access.
func (r *ProfileRepo) GetOrCreate(ctx context.Context, userID string) (*model.UserProfile, error) {
	if _, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO user_profiles (user_id) VALUES (?)", userID); err != nil {
		return nil, err
	}
	return r.get(ctx, userID)
}

// Update overwrites every editable column of an existing profile.
func (r *ProfileRepo) Update(ctx context.Context, p *model.UserProfile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET bio = ?, profile_picture = ?, resume = ?, linkedin_url = ?,
		 skills = ?, experience_years = ? WHERE user_id = ?`,
		p.Bio, p.ProfilePicture, p.Resume, p.LinkedInURL, p.Skills, p.ExperienceYears, p.UserID)
	if err != nil {
		return err
	}
	return affected(res)
}
