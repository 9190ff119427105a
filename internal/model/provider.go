package model

import "context"

type App struct {
	ID        string
	Name      string
	WebURL    string
	CreatedAt string
	UpdatedAt string
}

// Platform is the PaaS provider the bot manages applications on. Every call
// is a single authenticated request; implementations must enforce a timeout
// and map timeouts and unexpected statuses to ErrUnavailable.
type Platform interface {
	ValidateToken(ctx context.Context, token string) (bool, error)
	ListApps(ctx context.Context, token string) ([]App, error)
	GetApp(ctx context.Context, token, name string) (*App, error)
	RestartApp(ctx context.Context, token, name string) error
	GetLogs(ctx context.Context, token, name string, lines int) (string, error)
	SlugURL(ctx context.Context, token, name string) (string, error)
	AppExists(ctx context.Context, token, name string) (bool, error)
	CreateApp(ctx context.Context, token, name string) (*App, error)
	SetConfig(
		ctx context.Context,
		token, name string,
		vars map[string]string,
	) error
	CreateBuild(
		ctx context.Context,
		token, name, archiveURL, version string,
	) error
}

// SourceHost is the service hosting the user's source repository. The
// archive URL is a deterministic template, not a queried value.
type SourceHost interface {
	ListBranches(ctx context.Context, owner, repo string) ([]string, error)
	ArchiveURL(owner, repo, branch string) string
}

// Notificator is the fire-and-forget activity sink for wizard transitions.
// Delivery failures must never fail or block the transition that triggered
// them.
type Notificator interface {
	SendDeployActivity(userID int64, action, details string) error
}
