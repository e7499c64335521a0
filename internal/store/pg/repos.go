package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sebastos1/auth/internal/store/core"
)

// ─── Clients ───

func (s *Store) GetClientByID(ctx context.Context, clientID string) (*core.Client, error) {
	const query = `
		SELECT client_id, client_secret, name, redirect_uris, allowed_scopes, authorized_origins, created_at
		FROM clients WHERE client_id = $1
	`
	var c core.Client
	err := s.pool.QueryRow(ctx, query, clientID).Scan(
		&c.ClientID, &c.ClientSecret, &c.Name, &c.RedirectURIs, &c.AllowedScopes, &c.AuthorizedOrigins, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *core.Client) error {
	const query = `
		INSERT INTO clients (client_id, client_secret, name, redirect_uris, allowed_scopes, authorized_origins, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (client_id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query, c.ClientID, c.ClientSecret, c.Name, c.RedirectURIs, c.AllowedScopes, c.AuthorizedOrigins)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrConflict
	}
	return nil
}

// ─── Users ───

const userColumns = `id, email, username, password_hash, country, avatar_url, bio,
	is_moderator, is_admin, is_active, is_member, is_verified,
	created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Country, &u.AvatarURL, &u.Bio,
		&u.IsModerator, &u.IsAdmin, &u.IsActive, &u.IsMember, &u.IsVerified,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*core.User, error) {
	// login puede ser email o username
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) OR username = $1`
	return scanUser(s.pool.QueryRow(ctx, query, login))
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	const query = `
		INSERT INTO users (id, email, username, password_hash, country, avatar_url, bio,
			is_moderator, is_admin, is_active, is_member, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.pool.Exec(ctx, query,
		u.ID, u.Email, u.Username, u.PasswordHash, u.Country, u.AvatarURL, u.Bio,
		u.IsModerator, u.IsAdmin, u.IsActive, u.IsMember, u.IsVerified, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	const query = `
		UPDATE users SET email = $2, username = $3, country = $4, avatar_url = $5, bio = $6,
			is_moderator = $7, is_admin = $8, is_active = $9, is_member = $10, is_verified = $11,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		u.ID, u.Email, u.Username, u.Country, u.AvatarURL, u.Bio,
		u.IsModerator, u.IsAdmin, u.IsActive, u.IsMember, u.IsVerified,
	)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
	return err
}

// ─── Authorization codes ───

func (s *Store) CreateAuthorizationCode(ctx context.Context, ac *core.AuthorizationCode) error {
	const query = `
		INSERT INTO auth_codes (code, client_id, user_id, redirect_uri, scopes,
			code_challenge, code_challenge_method, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		ac.Code, ac.ClientID, ac.UserID, ac.RedirectURI, ac.Scopes,
		ac.CodeChallenge, ac.CodeChallengeMethod, ac.ExpiresAt, ac.CreatedAt,
	)
	return err
}

func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*core.AuthorizationCode, error) {
	const query = `
		SELECT code, client_id, user_id, redirect_uri, scopes, code_challenge, code_challenge_method, expires_at, created_at
		FROM auth_codes WHERE code = $1 AND expires_at > NOW()
	`
	var ac core.AuthorizationCode
	err := s.pool.QueryRow(ctx, query, code).Scan(
		&ac.Code, &ac.ClientID, &ac.UserID, &ac.RedirectURI, &ac.Scopes,
		&ac.CodeChallenge, &ac.CodeChallengeMethod, &ac.ExpiresAt, &ac.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

// ─── Tokens ───

func (s *Store) GetAccessToken(ctx context.Context, token string) (*core.AccessToken, error) {
	const query = `
		SELECT token, client_id, user_id, scopes, expires_at, created_at
		FROM access_tokens WHERE token = $1 AND expires_at > NOW()
	`
	var at core.AccessToken
	err := s.pool.QueryRow(ctx, query, token).Scan(
		&at.Token, &at.ClientID, &at.UserID, &at.Scopes, &at.ExpiresAt, &at.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (s *Store) GetRefreshToken(ctx context.Context, token string) (*core.RefreshToken, error) {
	const query = `
		SELECT token, access_token, client_id, user_id, scopes, expires_at, created_at
		FROM refresh_tokens WHERE token = $1 AND expires_at > NOW()
	`
	var rt core.RefreshToken
	err := s.pool.QueryRow(ctx, query, token).Scan(
		&rt.Token, &rt.AccessToken, &rt.ClientID, &rt.UserID, &rt.Scopes, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

const insertAccessToken = `
	INSERT INTO access_tokens (token, client_id, user_id, scopes, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

const insertRefreshToken = `
	INSERT INTO refresh_tokens (token, access_token, client_id, user_id, scopes, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// ─── Operaciones compuestas (una transacción cada una) ───

func (s *Store) RedeemAuthorizationCode(ctx context.Context, code string, at *core.AccessToken, rt *core.RefreshToken) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// El delete va primero: bajo requests duplicadas concurrentes, la segunda
	// transacción ve cero filas afectadas y aborta sin emitir nada.
	tag, err := tx.Exec(ctx, `DELETE FROM auth_codes WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}

	if _, err := tx.Exec(ctx, insertAccessToken,
		at.Token, at.ClientID, at.UserID, at.Scopes, at.ExpiresAt, at.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertRefreshToken,
		rt.Token, rt.AccessToken, rt.ClientID, rt.UserID, rt.Scopes, rt.ExpiresAt, rt.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RotateRefreshToken(ctx context.Context, old *core.RefreshToken, at *core.AccessToken, rt *core.RefreshToken) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, old.Token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// ya rotado por otra request; el refresh viejo no se puede replayar
		return core.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM access_tokens WHERE token = $1`, old.AccessToken); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, insertAccessToken,
		at.Token, at.ClientID, at.UserID, at.Scopes, at.ExpiresAt, at.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertRefreshToken,
		rt.Token, rt.AccessToken, rt.ClientID, rt.UserID, rt.Scopes, rt.ExpiresAt, rt.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RevokeAccessToken(ctx context.Context, token, clientID string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM access_tokens WHERE token = $1 AND client_id = $2`, token, clientID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE access_token = $1`, token); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (s *Store) RevokeRefreshToken(ctx context.Context, token, clientID string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var accessToken string
	err = tx.QueryRow(ctx,
		`DELETE FROM refresh_tokens WHERE token = $1 AND client_id = $2 RETURNING access_token`,
		token, clientID,
	).Scan(&accessToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM access_tokens WHERE token = $1`, accessToken); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
