package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/holohaven-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error

	UpsertPushToken(ctx context.Context, userID uuid.UUID, token string, at time.Time) error
	ListPushTokens(ctx context.Context, userID uuid.UUID) ([]string, error)
	TouchPushTokens(ctx context.Context, tokens []string, at time.Time) error
	DeleteStalePushTokens(ctx context.Context, before time.Time) (int64, error)
	ListRecipients(ctx context.Context, nonAdminOnly, withTokensOnly bool) ([]model.Recipient, error)
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

const userColumns = `id, email, username, password_hash, full_name, phone, bio, address,
	profile_picture, google_id, google_email, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.Phone, &u.Bio, &u.Address,
		&u.ProfilePicture, &u.GoogleID, &u.GoogleEmail, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	query := `INSERT INTO users (id, email, username, password_hash, full_name, profile_picture,
			  google_id, google_email, is_admin, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FullName, user.ProfilePicture,
		user.GoogleID, user.GoogleEmail, user.IsAdmin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE ($1 <> '' AND google_id = $1) OR email = $2
			  ORDER BY (google_id = $1) DESC LIMIT 1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, googleID, email))
	if err != nil {
		return nil, fmt.Errorf("get user by google id: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email=$2, username=$3, password_hash=$4, full_name=$5, phone=$6, bio=$7,
			  address=$8, profile_picture=$9, google_id=$10, google_email=$11, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FullName, user.Phone, user.Bio,
		user.Address, user.ProfilePicture, user.GoogleID, user.GoogleEmail,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *pgUserRepo) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_admin=$2, updated_at=NOW() WHERE id=$1`, id, admin)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertPushToken registers a token or refreshes its lastUsedAt. Registering
// the same token twice never duplicates it.
func (r *pgUserRepo) UpsertPushToken(ctx context.Context, userID uuid.UUID, token string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO push_tokens (user_id, token, last_used_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, token) DO UPDATE SET last_used_at = EXCLUDED.last_used_at`,
		userID, token, at,
	)
	if err != nil {
		return fmt.Errorf("upsert push token: %w", err)
	}
	return nil
}

func (r *pgUserRepo) ListPushTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT token FROM push_tokens WHERE user_id = $1 ORDER BY last_used_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list push tokens: %w", err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan push tokens: %w", err)
	}
	return tokens, nil
}

func (r *pgUserRepo) TouchPushTokens(ctx context.Context, tokens []string, at time.Time) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE push_tokens SET last_used_at = $2 WHERE token = ANY($1)`, tokens, at)
	if err != nil {
		return fmt.Errorf("touch push tokens: %w", err)
	}
	return nil
}

func (r *pgUserRepo) DeleteStalePushTokens(ctx context.Context, before time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM push_tokens WHERE last_used_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete stale push tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgUserRepo) ListRecipients(ctx context.Context, nonAdminOnly, withTokensOnly bool) ([]model.Recipient, error) {
	query := `SELECT u.id, COALESCE(array_agg(pt.token) FILTER (WHERE pt.token IS NOT NULL), '{}')
			  FROM users u
			  LEFT JOIN push_tokens pt ON pt.user_id = u.id
			  WHERE ($1 = FALSE OR u.is_admin = FALSE)
			  GROUP BY u.id
			  HAVING ($2 = FALSE OR COUNT(pt.token) > 0)
			  ORDER BY u.id`
	rows, err := r.pool.Query(ctx, query, nonAdminOnly, withTokensOnly)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []model.Recipient
	for rows.Next() {
		var rc model.Recipient
		if err := rows.Scan(&rc.UserID, &rc.Tokens); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		recipients = append(recipients, rc)
	}
	return recipients, rows.Err()
}
