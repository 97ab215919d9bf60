package database

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Migration is one named, idempotently tracked schema step.
type Migration struct {
	Name string
	Up   func(ctx context.Context, tx *sql.Tx) error
}

func execAll(stmts ...string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}

// Migrations is the ordered schema history.  Unique key names are matched by
// the repository layer when translating duplicate-entry errors.
var Migrations = []Migration{
	{Name: "001_users", Up: execAll(`
		CREATE TABLE IF NOT EXISTS users (
			id            CHAR(36)     NOT NULL PRIMARY KEY,
			username      VARCHAR(150) NOT NULL,
			first_name    VARCHAR(150) NOT NULL,
			last_name     VARCHAR(150) NOT NULL,
			email         VARCHAR(254) NOT NULL,
			phone_number  VARCHAR(13)  NULL,
			password_hash VARCHAR(255) NOT NULL,
			role          ENUM('admin','employer','job_seeker') NOT NULL DEFAULT 'job_seeker',
			is_active     TINYINT(1)   NOT NULL DEFAULT 1,
			date_joined   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login    DATETIME     NULL,
			UNIQUE KEY uq_users_username (username),
			UNIQUE KEY uq_users_email (email),
			UNIQUE KEY uq_users_phone (phone_number)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
		CREATE TABLE IF NOT EXISTS user_profiles (
			user_id          CHAR(36)      NOT NULL PRIMARY KEY,
			bio              VARCHAR(500)  NOT NULL DEFAULT '',
			profile_picture  VARCHAR(255)  NOT NULL DEFAULT '',
			resume           VARCHAR(255)  NOT NULL DEFAULT '',
			linkedin_url     VARCHAR(200)  NOT NULL DEFAULT '',
			skills           VARCHAR(1000) NOT NULL DEFAULT '',
			experience_years INT UNSIGNED  NOT NULL DEFAULT 0,
			created_at       DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			CONSTRAINT fk_profiles_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id    CHAR(36) NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_refresh_tokens_hash (token_hash),
			KEY idx_refresh_tokens_user (user_id),
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)},

	{Name: "002_catalog", Up: execAll(`
		CREATE TABLE IF NOT EXISTS industries (
			id          CHAR(36)     NOT NULL PRIMARY KEY,
			name        VARCHAR(100) NOT NULL,
			slug        VARCHAR(120) NOT NULL,
			description VARCHAR(500) NOT NULL DEFAULT '',
			is_active   TINYINT(1)   NOT NULL DEFAULT 1,
			created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_industries_slug (slug)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
		CREATE TABLE IF NOT EXISTS locations (
			id         CHAR(36)     NOT NULL PRIMARY KEY,
			country    VARCHAR(100) NOT NULL,
			city       VARCHAR(100) NOT NULL,
			region     VARCHAR(100) NOT NULL,
			is_remote  TINYINT(1)   NOT NULL DEFAULT 0,
			created_by CHAR(36)     NOT NULL,
			created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_locations_owner (created_by),
			CONSTRAINT fk_locations_owner FOREIGN KEY (created_by) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
		CREATE TABLE IF NOT EXISTS companies (
			id          CHAR(36)     NOT NULL PRIMARY KEY,
			name        VARCHAR(150) NOT NULL,
			slug        VARCHAR(170) NOT NULL,
			description TEXT         NOT NULL,
			logo        VARCHAR(255) NOT NULL DEFAULT '',
			website_url VARCHAR(200) NOT NULL DEFAULT '',
			industry_id CHAR(36)     NOT NULL,
			is_verified TINYINT(1)   NOT NULL DEFAULT 0,
			created_by  CHAR(36)     NOT NULL,
			created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_companies_name (name),
			UNIQUE KEY uq_companies_slug (slug),
			KEY idx_companies_owner (created_by),
			CONSTRAINT fk_companies_industry FOREIGN KEY (industry_id) REFERENCES industries(id) ON DELETE RESTRICT,
			CONSTRAINT fk_companies_owner FOREIGN KEY (created_by) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
		CREATE TABLE IF NOT EXISTS company_locations (
			company_id  CHAR(36) NOT NULL,
			location_id CHAR(36) NOT NULL,
			PRIMARY KEY (company_id, location_id),
			CONSTRAINT fk_company_locations_company FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE,
			CONSTRAINT fk_company_locations_location FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)},

	{Name: "003_jobs", Up: execAll(`
		CREATE TABLE IF NOT EXISTS jobs (
			id                   CHAR(36)      NOT NULL PRIMARY KEY,
			title                VARCHAR(200)  NOT NULL,
			slug                 VARCHAR(60)   NOT NULL,
			company_id           CHAR(36)      NOT NULL,
			industry_id          CHAR(36)      NOT NULL,
			job_type             ENUM('full_time','part_time','contract','internship') NOT NULL,
			experience_level     ENUM('entry','mid_level','senior','lead','executive') NOT NULL,
			description          TEXT          NOT NULL,
			requirements         TEXT          NOT NULL,
			responsibilities     TEXT          NOT NULL,
			skills_required      TEXT          NOT NULL,
			salary_min           DECIMAL(10,2) NULL,
			salary_max           DECIMAL(10,2) NULL,
			salary_currency      VARCHAR(10)   NOT NULL DEFAULT 'Ksh',
			is_salary_visible    TINYINT(1)    NOT NULL DEFAULT 1,
			is_active            TINYINT(1)    NOT NULL DEFAULT 1,
			application_deadline DATE          NULL,
			posted_by            CHAR(36)      NOT NULL,
			posted_on            DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_on           DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_jobs_slug (slug),
			KEY idx_jobs_posted_by (posted_by),
			KEY idx_jobs_active (is_active, posted_on),
			CONSTRAINT fk_jobs_company FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE,
			CONSTRAINT fk_jobs_industry FOREIGN KEY (industry_id) REFERENCES industries(id) ON DELETE RESTRICT,
			CONSTRAINT fk_jobs_poster FOREIGN KEY (posted_by) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
		CREATE TABLE IF NOT EXISTS job_locations (
			job_id      CHAR(36) NOT NULL,
			location_id CHAR(36) NOT NULL,
			PRIMARY KEY (job_id, location_id),
			CONSTRAINT fk_job_locations_job FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE,
			CONSTRAINT fk_job_locations_location FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)},

	{Name: "004_applications", Up: execAll(`
		CREATE TABLE IF NOT EXISTS applications (
			id                   CHAR(36)      NOT NULL PRIMARY KEY,
			job_id               CHAR(36)      NOT NULL,
			applicant_id         CHAR(36)      NOT NULL,
			status               ENUM('pending','reviewed','shortlisted','interview','rejected') NOT NULL DEFAULT 'pending',
			cover_letter         TEXT          NOT NULL,
			resume               VARCHAR(255)  NOT NULL,
			additional_documents VARCHAR(255)  NOT NULL DEFAULT '',
			experience_years     INT UNSIGNED  NOT NULL DEFAULT 0,
			expected_salary      DECIMAL(10,2) NULL,
			availability_date    DATE          NULL,
			reviewed_by          CHAR(36)      NULL,
			reviewed_at          DATETIME      NULL,
			applied_on           DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_applications_job_applicant (job_id, applicant_id),
			KEY idx_applications_applicant (applicant_id, applied_on),
			CONSTRAINT fk_applications_job FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE,
			CONSTRAINT fk_applications_applicant FOREIGN KEY (applicant_id) REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT fk_applications_reviewer FOREIGN KEY (reviewed_by) REFERENCES users(id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)},
}

// Migrate applies every migration not yet recorded in schema_migrations.
// MySQL commits DDL implicitly, so a failed step may leave its earlier
// statements applied; each statement is written to be re-runnable.
func Migrate(ctx context.Context, db *sql.DB, migrations []Migration) error {
	log.Info("Starting database migrations")

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       VARCHAR(100) NOT NULL PRIMARY KEY,
		applied_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, m.Name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if applied > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := m.Up(ctx, tx); err != nil {
			_ = tx.Rollback()
			log.WithField("name", m.Name).Errorf("Migration failed: %v", err)
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.WithField("name", m.Name).Info("Migration completed")
	}

	log.Info("All migrations completed successfully")
	return nil
}
