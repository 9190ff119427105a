package model

import (
	"context"
	"fmt"
	"time"
)

// Step is the wizard step a deployment session is waiting on.
type Step string

const (
	StepAwaitingRepository Step = "awaiting_repository"
	StepAwaitingBranch     Step = "awaiting_branch"
	StepAwaitingAppName    Step = "awaiting_app_name"
	StepAwaitingVarNames   Step = "awaiting_var_names"
	StepAwaitingVarValue   Step = "awaiting_var_value"
	StepDeploying          Step = "deploying"
)

// validTransitions defines the forward-only step order. Cancellation is not
// listed: it destroys the session from any step instead of transitioning it.
var validTransitions = map[Step][]Step{
	StepAwaitingRepository: {StepAwaitingBranch},
	StepAwaitingBranch:     {StepAwaitingAppName},
	StepAwaitingAppName:    {StepAwaitingVarNames},
	StepAwaitingVarNames:   {StepAwaitingVarValue, StepDeploying},
	StepAwaitingVarValue:   {StepAwaitingVarValue, StepDeploying},
	StepDeploying:          {},
}

func IsValidTransition(from, to Step) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// DeploymentSession is the per-user draft of an in-progress deployment. At
// most one exists per user; it is destroyed on completion, cancellation or
// expiry.
type DeploymentSession struct {
	UserID        int64
	Step          Step
	RepoURL       string
	RepoOwner     string
	RepoName      string
	Branch        string
	BranchChoices []string
	AppName       string
	RequiredVars  []string
	CollectedVars map[string]string
	VarIndex      int
	ExpiresAt     time.Time
}

func NewDeploymentSession(userID int64, ttl time.Duration) *DeploymentSession {
	return &DeploymentSession{
		UserID:        userID,
		Step:          StepAwaitingRepository,
		CollectedVars: map[string]string{},
		ExpiresAt:     time.Now().Add(ttl),
	}
}

// Advance moves the session to the next step, rejecting anything that is not
// in the declared step order.
func (s *DeploymentSession) Advance(to Step) error {
	if !IsValidTransition(s.Step, to) {
		return fmt.Errorf("invalid step transition: %s -> %s", s.Step, to)
	}

	s.Step = to
	return nil
}

func (s *DeploymentSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type SessionRepository interface {
	GetSession(ctx context.Context, userID int64) (*DeploymentSession, error)
	PutSession(ctx context.Context, s *DeploymentSession) error
	DeleteSession(ctx context.Context, userID int64) error
	ListSessions(ctx context.Context) ([]*DeploymentSession, error)
	DeleteExpiredSessions(
		ctx context.Context,
		now time.Time,
	) ([]*DeploymentSession, error)
}
