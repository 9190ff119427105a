package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Import pq library
	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/internal/model"
)

type Storage struct {
	DB *sql.DB
}

var _ model.Repository = (*Storage)(nil)

func New(
	host string,
	port int,
	username string,
	password string,
	database string,
) (_ *Storage, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("storage init error: %w", err)
		}
	}()

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, username, password, database,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w, tx rollback error: %w", err, rbErr)
			}
		}
	}()

	dbCreateQuery := `
	CREATE TABLE IF NOT EXISTS credentials (
			user_id BIGINT PRIMARY KEY,
			token TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
			user_id BIGINT PRIMARY KEY,
			step TEXT NOT NULL,
			repo_url TEXT NOT NULL DEFAULT '',
			repo_owner TEXT NOT NULL DEFAULT '',
			repo_name TEXT NOT NULL DEFAULT '',
			branch TEXT NOT NULL DEFAULT '',
			branch_choices TEXT NOT NULL DEFAULT '[]',
			app_name TEXT NOT NULL DEFAULT '',
			required_vars TEXT NOT NULL DEFAULT '[]',
			collected_vars TEXT NOT NULL DEFAULT '{}',
			var_index INT NOT NULL DEFAULT 0,
			expires_at BIGINT NOT NULL
	);
	`

	if _, err = tx.Exec(dbCreateQuery); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Storage{
		DB: db,
	}, nil
}

func (s *Storage) GetToken(
	ctx context.Context,
	userID int64,
) (string, error) {
	q := `SELECT token FROM credentials WHERE user_id = $1;`

	row := s.DB.QueryRowContext(ctx, q, userID)

	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("get token error: %w", err)
	}

	return token, nil
}

func (s *Storage) SetToken(
	ctx context.Context,
	userID int64,
	token string,
) error {
	return s.executeTransaction(ctx, func(tx *sql.Tx) error {
		q := `INSERT INTO credentials (user_id, token) VALUES ($1, $2)
				ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token;`

		stmt, err := tx.Prepare(q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		if _, err = stmt.Exec(userID, token); err != nil {
			return err
		}

		return nil
	})
}

func (s *Storage) DeleteToken(ctx context.Context, userID int64) error {
	return s.executeTransaction(ctx, func(tx *sql.Tx) error {
		q := `DELETE FROM credentials WHERE user_id = $1;`

		stmt, err := tx.Prepare(q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		if _, err = stmt.Exec(userID); err != nil {
			return err
		}

		return nil
	})
}

func (s *Storage) GetSession(
	ctx context.Context,
	userID int64,
) (*model.DeploymentSession, error) {
	q := `SELECT * FROM sessions WHERE user_id = $1;`

	row := s.DB.QueryRowContext(ctx, q, userID)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get session error: %w", err)
	}

	return sess, nil
}

func (s *Storage) PutSession(
	ctx context.Context,
	sess *model.DeploymentSession,
) error {
	branchChoices, requiredVars, collectedVars, err := encodeSessionFields(sess)
	if err != nil {
		return fmt.Errorf("put session error: %w", err)
	}

	return s.executeTransaction(ctx, func(tx *sql.Tx) error {
		q := `INSERT INTO sessions (
					user_id,
					step,
					repo_url,
					repo_owner,
					repo_name,
					branch,
					branch_choices,
					app_name,
					required_vars,
					collected_vars,
					var_index,
					expires_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (user_id) DO UPDATE SET
					step = EXCLUDED.step,
					repo_url = EXCLUDED.repo_url,
					repo_owner = EXCLUDED.repo_owner,
					repo_name = EXCLUDED.repo_name,
					branch = EXCLUDED.branch,
					branch_choices = EXCLUDED.branch_choices,
					app_name = EXCLUDED.app_name,
					required_vars = EXCLUDED.required_vars,
					collected_vars = EXCLUDED.collected_vars,
					var_index = EXCLUDED.var_index,
					expires_at = EXCLUDED.expires_at;`

		stmt, err := tx.Prepare(q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		if _, err := stmt.Exec(
			sess.UserID,
			string(sess.Step),
			sess.RepoURL,
			sess.RepoOwner,
			sess.RepoName,
			sess.Branch,
			branchChoices,
			sess.AppName,
			requiredVars,
			collectedVars,
			sess.VarIndex,
			sess.ExpiresAt.Unix(),
		); err != nil {
			return err
		}

		return nil
	})
}

func (s *Storage) DeleteSession(ctx context.Context, userID int64) error {
	return s.executeTransaction(ctx, func(tx *sql.Tx) error {
		q := `DELETE FROM sessions WHERE user_id = $1;`

		stmt, err := tx.Prepare(q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		if _, err = stmt.Exec(userID); err != nil {
			return err
		}

		return nil
	})
}

func (s *Storage) ListSessions(
	ctx context.Context,
) ([]*model.DeploymentSession, error) {
	q := `SELECT * FROM sessions;`
	return s.getSessions(ctx, q)
}

func (s *Storage) DeleteExpiredSessions(
	ctx context.Context,
	now time.Time,
) ([]*model.DeploymentSession, error) {
	q := `SELECT * FROM sessions WHERE expires_at < $1;`

	expired, err := s.getSessions(ctx, q, now.Unix())
	if err != nil {
		return nil, err
	}

	if len(expired) == 0 {
		return nil, nil
	}

	err = s.executeTransaction(ctx, func(tx *sql.Tx) error {
		q := `DELETE FROM sessions WHERE expires_at < $1;`

		stmt, err := tx.Prepare(q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		if _, err = stmt.Exec(now.Unix()); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, sess := range expired {
		log.Infof(
			"Expired session removed, user: %d, step: %s",
			sess.UserID,
			sess.Step,
		)
	}

	return expired, nil
}

func (s *Storage) executeTransaction(
	ctx context.Context,
	txFunc func(*sql.Tx) error,
) (err error) {
	opts := sql.TxOptions{}
	tx, err := s.DB.BeginTx(ctx, &opts)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w, tx rollback error: %w", err, rbErr)
			}
		}
	}()

	if err := txFunc(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) getSessions(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]*model.DeploymentSession, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get sessions error: %w", err)
	}
	defer rows.Close()

	var sessions []*model.DeploymentSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("get sessions error: %w", err)
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.DeploymentSession, error) {
	var (
		sess          model.DeploymentSession
		step          string
		branchChoices string
		requiredVars  string
		collectedVars string
		expiresAt     int64
	)

	if err := row.Scan(
		&sess.UserID,
		&step,
		&sess.RepoURL,
		&sess.RepoOwner,
		&sess.RepoName,
		&sess.Branch,
		&branchChoices,
		&sess.AppName,
		&requiredVars,
		&collectedVars,
		&sess.VarIndex,
		&expiresAt,
	); err != nil {
		return nil, err
	}

	sess.Step = model.Step(step)
	sess.ExpiresAt = time.Unix(expiresAt, 0)

	if err := json.Unmarshal([]byte(branchChoices), &sess.BranchChoices); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(requiredVars), &sess.RequiredVars); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(collectedVars), &sess.CollectedVars); err != nil {
		return nil, err
	}

	return &sess, nil
}

func encodeSessionFields(
	sess *model.DeploymentSession,
) (branchChoices, requiredVars, collectedVars string, err error) {
	bc, err := json.Marshal(sess.BranchChoices)
	if err != nil {
		return "", "", "", err
	}

	rv, err := json.Marshal(sess.RequiredVars)
	if err != nil {
		return "", "", "", err
	}

	cv, err := json.Marshal(sess.CollectedVars)
	if err != nil {
		return "", "", "", err
	}

	return string(bc), string(rv), string(cv), nil
}
