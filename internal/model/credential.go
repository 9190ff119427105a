package model

import "context"

type Credential struct {
	UserID int64
	Token  string
}

type CredentialRepository interface {
	GetToken(ctx context.Context, userID int64) (string, error)
	SetToken(ctx context.Context, userID int64, token string) error
	DeleteToken(ctx context.Context, userID int64) error
}

type Repository interface {
	CredentialRepository
	SessionRepository
	Close() error
}
