package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/memestream/memestream-service/internal/config"
	"github.com/memestream/memestream-service/internal/storage"
	"github.com/memestream/memestream-service/internal/types/auth"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name VARCHAR(255),
			bio TEXT,
			profile_picture_url TEXT,
			wallet_address VARCHAR(42),
			followers_count INTEGER NOT NULL DEFAULT 0,
			following_count INTEGER NOT NULL DEFAULT 0,
			posts_count INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS sessions (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			token TEXT UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

const userColumns = `user_id, username, email, password_hash, display_name, bio,
	profile_picture_url, wallet_address, followers_count, following_count,
	posts_count, is_active, created_at, last_login_at`

func (p *Postgres) CreateUser(username, email, passwordHash string, displayName, walletAddress *string) (*auth.User, error) {
	query := `
	INSERT INTO users (username, email, password_hash, display_name, wallet_address)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + userColumns

	user, err := scanUser(p.Db.QueryRow(query, username, email, passwordHash, displayName, walletAddress))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	return user, nil
}

func (p *Postgres) GetUserByEmail(email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = TRUE`

	user, err := scanUser(p.Db.QueryRow(query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (p *Postgres) GetUserByID(userID int) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 AND is_active = TRUE`

	user, err := scanUser(p.Db.QueryRow(query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (p *Postgres) EmailTaken(email string) (bool, error) {
	var exists bool
	err := p.Db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (p *Postgres) UsernameTaken(username string) (bool, error) {
	var exists bool
	err := p.Db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (p *Postgres) UpdateProfile(userID int, req auth.UpdateProfileRequest) (*auth.User, error) {
	query := `
	UPDATE users
	SET display_name = COALESCE($1, display_name),
	    bio = COALESCE($2, bio),
	    profile_picture_url = COALESCE($3, profile_picture_url)
	WHERE user_id = $4
	RETURNING ` + userColumns

	user, err := scanUser(p.Db.QueryRow(query, req.DisplayName, req.Bio, req.ProfilePictureURL, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (p *Postgres) UpdateLastLogin(userID int) error {
	_, err := p.Db.Exec(`UPDATE users SET last_login_at = NOW() WHERE user_id = $1`, userID)
	return err
}

func (p *Postgres) RecordSession(userID int, token string, expiresAt time.Time) error {
	_, err := p.Db.Exec(
		`INSERT INTO sessions (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, token, expiresAt,
	)
	return err
}

func (p *Postgres) InvalidateSession(token string) error {
	// No-match is fine; logout stays idempotent.
	_, err := p.Db.Exec(`UPDATE sessions SET is_active = FALSE WHERE token = $1`, token)
	return err
}

func (p *Postgres) DeleteExpiredSessions() (int64, error) {
	res, err := p.Db.Exec(`DELETE FROM sessions WHERE expires_at < NOW() OR is_active = FALSE`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	var displayName, bio, pictureURL, wallet sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&u.UserID, &u.Username, &u.Email, &u.PasswordHash,
		&displayName, &bio, &pictureURL, &wallet,
		&u.FollowersCount, &u.FollowingCount, &u.PostsCount,
		&u.IsActive, &u.CreatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}

	if displayName.Valid {
		u.DisplayName = &displayName.String
	}
	if bio.Valid {
		u.Bio = &bio.String
	}
	if pictureURL.Valid {
		u.ProfilePictureURL = &pictureURL.String
	}
	if wallet.Valid {
		u.WalletAddress = &wallet.String
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}

	return &u, nil
}

// mapUniqueViolation turns the unique-constraint race the pre-insert checks
// can miss into the same sentinel errors the handlers already report.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "email") {
			return storage.ErrDuplicateEmail
		}
		return storage.ErrDuplicateUsername
	}
	return err
}
