// Package wizard drives the guided deployment conversation: one persisted
// session per user, advanced step by step, every input validated against the
// providers before the session moves forward.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/internal/github"
	"github.com/sfwcore/herobot/internal/model"
)

const dashboardURL = "https://dashboard.heroku.com/apps/"

var appNameRegexp = regexp.MustCompile(`^[a-z0-9-]{1,30}$`)

// emptyVarList is the literal a user sends to declare "no config vars": a
// bare empty message would be indistinguishable from a mistake.
const emptyVarList = "-"

type Wizard struct {
	repo     model.Repository
	platform model.Platform
	source   model.SourceHost
	notify   model.Notificator

	sessionTTL  time.Duration
	callTimeout time.Duration

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New(
	repo model.Repository,
	platform model.Platform,
	source model.SourceHost,
	notify model.Notificator,
	sessionTTL time.Duration,
	callTimeout time.Duration,
) *Wizard {
	return &Wizard{
		repo:        repo,
		platform:    platform,
		source:      source,
		notify:      notify,
		sessionTTL:  sessionTTL,
		callTimeout: callTimeout,
		locks:       map[int64]*sync.Mutex{},
	}
}

// userLock returns the serialization point for one user. Two interactions
// from the same user must never interleave their read-validate-write of the
// session; interactions of different users are fully independent.
func (w *Wizard) userLock(userID int64) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		w.locks[userID] = l
	}

	return l
}

// Start creates a fresh session, overwriting any prior incomplete one.
func (w *Wizard) Start(ctx context.Context, userID int64) Result {
	lock := w.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := w.repo.GetToken(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Rejected("❌ First set your API key using /setkey")
		}
		return w.storageFailure(userID, err)
	}

	sess := model.NewDeploymentSession(userID, w.sessionTTL)
	if err := w.repo.PutSession(ctx, sess); err != nil {
		return w.storageFailure(userID, err)
	}

	w.notifyAsync(userID, "started", "new guided deployment")

	return Prompt(
		"🚀 Let's deploy! Send the repository URL " +
			"(https://github.com/<owner>/<repo>)",
	)
}

// SubmitInput feeds one free-text message to the step the session is
// waiting on.
func (w *Wizard) SubmitInput(
	ctx context.Context,
	userID int64,
	text string,
) Result {
	lock := w.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, res, ok := w.loadSession(ctx, userID)
	if !ok {
		return res
	}

	text = strings.TrimSpace(text)

	switch sess.Step {
	case model.StepAwaitingRepository:
		return w.handleRepository(ctx, sess, text)
	case model.StepAwaitingBranch:
		return Rejected("❌ Pick a branch from the list above")
	case model.StepAwaitingAppName:
		return w.handleAppName(ctx, sess, text)
	case model.StepAwaitingVarNames:
		return w.handleVarNames(ctx, sess, text)
	case model.StepAwaitingVarValue:
		return w.handleVarValue(ctx, sess, text)
	default:
		return Rejected("❌ No input expected right now")
	}
}

// SelectOption feeds one selection from a closed choice set. Branch
// selection is the only step rendered as choices.
func (w *Wizard) SelectOption(
	ctx context.Context,
	userID int64,
	optionID string,
) Result {
	lock := w.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, res, ok := w.loadSession(ctx, userID)
	if !ok {
		return res
	}

	if sess.Step != model.StepAwaitingBranch {
		return Rejected("❌ No selection expected right now")
	}

	return w.handleBranch(ctx, sess, optionID)
}

// Cancel destroys the session without any provider calls.
func (w *Wizard) Cancel(ctx context.Context, userID int64) Result {
	lock := w.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := w.repo.GetSession(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Rejected("❌ No deployment in progress")
		}
		return w.storageFailure(userID, err)
	}

	if err := w.repo.DeleteSession(ctx, userID); err != nil {
		return w.storageFailure(userID, err)
	}

	w.notifyAsync(userID, "cancelled", "deployment cancelled by user")

	return Completed("🛑 Deployment cancelled.")
}

// loadSession fetches the user's session and enforces expiry as an implicit
// cancellation. The third return is false when the caller should return the
// Result as is.
func (w *Wizard) loadSession(
	ctx context.Context,
	userID int64,
) (*model.DeploymentSession, Result, bool) {
	sess, err := w.repo.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, Rejected(
				"❌ No deployment in progress, start one with /deploy",
			), false
		}
		return nil, w.storageFailure(userID, err), false
	}

	if sess.Expired(time.Now()) {
		if err := w.repo.DeleteSession(ctx, userID); err != nil {
			return nil, w.storageFailure(userID, err), false
		}

		w.notifyAsync(userID, "expired", "abandoned session discarded")

		return nil, Rejected(
			"⌛ Your deployment session expired, start again with /deploy",
		), false
	}

	return sess, Result{}, true
}

func (w *Wizard) handleRepository(
	ctx context.Context,
	sess *model.DeploymentSession,
	url string,
) Result {
	owner, repo, ok := github.ParseRepoURL(url)
	if !ok {
		return Rejected(
			"❌ That doesn't look like a repository URL. Expected " +
				"https://github.com/<owner>/<repo>",
		)
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	branches, err := w.source.ListBranches(callCtx, owner, repo)
	if err != nil {
		log.Errorf("Error listing branches for %s/%s: %v", owner, repo, err)
		return Rejected(
			"🔥 Could not reach the repository host, " +
				"send the URL again to retry",
		)
	}

	if len(branches) == 0 {
		return Rejected("❌ The repository has no branches")
	}

	sess.RepoURL = url
	sess.RepoOwner = owner
	sess.RepoName = repo
	sess.BranchChoices = branches

	if err := w.advance(ctx, sess, model.StepAwaitingBranch); err != nil {
		return w.storageFailure(sess.UserID, err)
	}

	w.notifyAsync(
		sess.UserID,
		"repository set",
		fmt.Sprintf("%s/%s", owner, repo),
	)

	choices := make([]Choice, 0, len(branches))
	for _, branch := range branches {
		choices = append(choices, Choice{Label: branch, ID: branch})
	}

	return Choices("🌿 Pick a branch:", choices)
}

func (w *Wizard) handleBranch(
	ctx context.Context,
	sess *model.DeploymentSession,
	branch string,
) Result {
	valid := false
	for _, choice := range sess.BranchChoices {
		if choice == branch {
			valid = true
			break
		}
	}
	if !valid {
		return Rejected("❌ Pick a branch from the list above")
	}

	sess.Branch = branch

	if err := w.advance(ctx, sess, model.StepAwaitingAppName); err != nil {
		return w.storageFailure(sess.UserID, err)
	}

	w.notifyAsync(sess.UserID, "branch set", branch)

	return Prompt(
		"📛 Send a name for the new app " +
			"(lowercase letters, digits and dashes, max 30 chars)",
	)
}

func (w *Wizard) handleAppName(
	ctx context.Context,
	sess *model.DeploymentSession,
	name string,
) Result {
	if !appNameRegexp.MatchString(name) {
		return Rejected(
			"❌ Invalid app name. Use lowercase letters, digits and " +
				"dashes, max 30 chars",
		)
	}

	token, err := w.repo.GetToken(ctx, sess.UserID)
	if err != nil {
		return w.storageFailure(sess.UserID, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	exists, err := w.platform.AppExists(callCtx, token, name)
	if err != nil {
		log.Errorf("Error checking app name %s: %v", name, err)
		return Rejected(
			"🔥 Could not reach Heroku, send the name again to retry",
		)
	}
	if exists {
		return Rejected(
			fmt.Sprintf("❌ The name %q is already taken, pick another", name),
		)
	}

	sess.AppName = name

	if err := w.advance(ctx, sess, model.StepAwaitingVarNames); err != nil {
		return w.storageFailure(sess.UserID, err)
	}

	w.notifyAsync(sess.UserID, "app name set", name)

	return Prompt(
		"🔑 List the config vars the app needs, comma separated " +
			"(for example API_KEY,DB_URL), or send " + emptyVarList +
			" if it needs none",
	)
}

func (w *Wizard) handleVarNames(
	ctx context.Context,
	sess *model.DeploymentSession,
	csv string,
) Result {
	names, err := SplitVarNames(csv)
	if err != nil {
		return Rejected("❌ " + err.Error())
	}

	sess.RequiredVars = names
	sess.VarIndex = 0
	sess.CollectedVars = map[string]string{}

	if len(names) == 0 {
		if err := w.advance(ctx, sess, model.StepDeploying); err != nil {
			return w.storageFailure(sess.UserID, err)
		}
		return w.runDeploy(ctx, sess)
	}

	if err := w.advance(ctx, sess, model.StepAwaitingVarValue); err != nil {
		return w.storageFailure(sess.UserID, err)
	}

	w.notifyAsync(
		sess.UserID,
		"config vars declared",
		strings.Join(names, ","),
	)

	return Prompt(fmt.Sprintf("✏️ Send the value for %s", names[0]))
}

func (w *Wizard) handleVarValue(
	ctx context.Context,
	sess *model.DeploymentSession,
	value string,
) Result {
	if value == "" {
		return Rejected(fmt.Sprintf(
			"❌ The value for %s cannot be empty",
			sess.RequiredVars[sess.VarIndex],
		))
	}

	sess.CollectedVars[sess.RequiredVars[sess.VarIndex]] = value
	sess.VarIndex++

	if sess.VarIndex < len(sess.RequiredVars) {
		// Staying on the same step is a transition too: the record is
		// re-persisted so a crash never loses a collected value.
		if err := w.advance(ctx, sess, model.StepAwaitingVarValue); err != nil {
			return w.storageFailure(sess.UserID, err)
		}

		return Prompt(fmt.Sprintf(
			"✏️ Send the value for %s",
			sess.RequiredVars[sess.VarIndex],
		))
	}

	if err := w.advance(ctx, sess, model.StepDeploying); err != nil {
		return w.storageFailure(sess.UserID, err)
	}

	return w.runDeploy(ctx, sess)
}

// runDeploy executes the final sequence: create app, set config vars,
// create build. A sub-step failure is reported with its name; nothing
// already applied is rolled back and the session is destroyed regardless of
// outcome.
func (w *Wizard) runDeploy(
	ctx context.Context,
	sess *model.DeploymentSession,
) Result {
	defer func() {
		if err := w.repo.DeleteSession(ctx, sess.UserID); err != nil {
			log.Errorf(
				"Error deleting session after deploy, user: %d: %v",
				sess.UserID,
				err,
			)
		}
	}()

	token, err := w.repo.GetToken(ctx, sess.UserID)
	if err != nil {
		return w.storageFailure(sess.UserID, err)
	}

	archiveURL := w.source.ArchiveURL(
		sess.RepoOwner, sess.RepoName, sess.Branch,
	)

	// Each sub-step gets its own timeout window: a slow config-vars call
	// must not eat into the build trigger's budget.
	createCtx, cancelCreate := context.WithTimeout(ctx, w.callTimeout)
	defer cancelCreate()

	if _, err := w.platform.CreateApp(createCtx, token, sess.AppName); err != nil {
		log.Errorf("Error creating app %s: %v", sess.AppName, err)
		w.notifyAsync(sess.UserID, "deploy failed", "create app")
		return Completed(fmt.Sprintf(
			"🔥 Deployment failed while creating the app %q. "+
				"Nothing was created.",
			sess.AppName,
		))
	}

	configCtx, cancelConfig := context.WithTimeout(ctx, w.callTimeout)
	defer cancelConfig()

	if err := w.platform.SetConfig(
		configCtx, token, sess.AppName, sess.CollectedVars,
	); err != nil {
		log.Errorf("Error setting config vars on %s: %v", sess.AppName, err)
		w.notifyAsync(sess.UserID, "deploy failed", "set config vars")
		return Completed(fmt.Sprintf(
			"🔥 Deployment failed while setting config vars. The app %q "+
				"was already created, inspect and clean it up manually.",
			sess.AppName,
		))
	}

	buildCtx, cancelBuild := context.WithTimeout(ctx, w.callTimeout)
	defer cancelBuild()

	if err := w.platform.CreateBuild(
		buildCtx, token, sess.AppName, archiveURL, sess.Branch,
	); err != nil {
		log.Errorf("Error triggering build for %s: %v", sess.AppName, err)
		w.notifyAsync(sess.UserID, "deploy failed", "trigger build")
		return Completed(fmt.Sprintf(
			"🔥 Deployment failed while triggering the build. The app %q "+
				"and its config vars already exist, inspect and clean "+
				"them up manually.",
			sess.AppName,
		))
	}

	w.notifyAsync(
		sess.UserID,
		"deployed",
		fmt.Sprintf(
			"%s from %s/%s@%s",
			sess.AppName, sess.RepoOwner, sess.RepoName, sess.Branch,
		),
	)

	return Completed(fmt.Sprintf(
		"✅ Deployed %s/%s@%s as %q!\n📊 Dashboard: %s%s",
		sess.RepoOwner,
		sess.RepoName,
		sess.Branch,
		sess.AppName,
		dashboardURL,
		sess.AppName,
	))
}

// advance commits one transition: step change plus the accumulated field
// mutations, with a fresh TTL.
func (w *Wizard) advance(
	ctx context.Context,
	sess *model.DeploymentSession,
	to model.Step,
) error {
	if err := sess.Advance(to); err != nil {
		return err
	}

	sess.ExpiresAt = time.Now().Add(w.sessionTTL)

	return w.repo.PutSession(ctx, sess)
}

func (w *Wizard) storageFailure(userID int64, err error) Result {
	log.Errorf("Storage error, user: %d: %v", userID, err)
	return Rejected("⚠️ Internal error, please try again later")
}

func (w *Wizard) notifyAsync(userID int64, action, details string) {
	go func() {
		if err := w.notify.SendDeployActivity(userID, action, details); err != nil {
			log.Errorf(
				"Error sending activity notification, user: %d, action: %s: %v",
				userID,
				action,
				err,
			)
		}
	}()
}

// SplitVarNames parses the comma-separated declaration of required config
// vars. Empty entries (trailing commas included) and duplicates are
// rejected; the literal "-" declares an empty list.
func SplitVarNames(csv string) ([]string, error) {
	csv = strings.TrimSpace(csv)
	if csv == emptyVarList {
		return []string{}, nil
	}
	if csv == "" {
		return nil, fmt.Errorf(
			"empty list; send %s if the app needs no config vars",
			emptyVarList,
		)
	}

	seen := map[string]bool{}
	var names []string
	for _, entry := range strings.Split(csv, ",") {
		name := strings.TrimSpace(entry)
		if name == "" {
			return nil, errors.New(
				"the list has an empty entry, remove stray commas",
			)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate entry: %s", name)
		}
		seen[name] = true
		names = append(names, name)
	}

	return names, nil
}
