package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfwcore/herobot/internal/model"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	st, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	return st
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	_, err := st.GetToken(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, st.SetToken(ctx, 1, "first"))

	token, err := st.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	// Setting again replaces.
	require.NoError(t, st.SetToken(ctx, 1, "second"))

	token, err = st.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	require.NoError(t, st.DeleteToken(ctx, 1))

	_, err = st.GetToken(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionRoundtrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	_, err := st.GetSession(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	sess := model.NewDeploymentSession(1, time.Hour)
	sess.RepoURL = "https://github.com/acme/widget"
	sess.RepoOwner = "acme"
	sess.RepoName = "widget"
	sess.Branch = "main"
	sess.BranchChoices = []string{"main", "dev"}
	sess.AppName = "my-app"
	sess.RequiredVars = []string{"API_KEY", "DB_URL"}
	sess.CollectedVars = map[string]string{"API_KEY": "v1"}
	sess.VarIndex = 1
	require.NoError(t, sess.Advance(model.StepAwaitingBranch))

	require.NoError(t, st.PutSession(ctx, sess))

	got, err := st.GetSession(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Step, got.Step)
	assert.Equal(t, sess.RepoURL, got.RepoURL)
	assert.Equal(t, sess.BranchChoices, got.BranchChoices)
	assert.Equal(t, sess.RequiredVars, got.RequiredVars)
	assert.Equal(t, sess.CollectedVars, got.CollectedVars)
	assert.Equal(t, sess.VarIndex, got.VarIndex)
	assert.Equal(t, sess.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestPutSessionReplaces(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	sess := model.NewDeploymentSession(1, time.Hour)
	require.NoError(t, st.PutSession(ctx, sess))

	require.NoError(t, sess.Advance(model.StepAwaitingBranch))
	sess.RepoURL = "https://github.com/acme/widget"
	require.NoError(t, st.PutSession(ctx, sess))

	got, err := st.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StepAwaitingBranch, got.Step)
	assert.Equal(t, "https://github.com/acme/widget", got.RepoURL)

	sessions, err := st.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	require.NoError(t, st.PutSession(ctx, model.NewDeploymentSession(1, time.Hour)))
	require.NoError(t, st.DeleteSession(ctx, 1))

	_, err := st.GetSession(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Deleting a missing session is not an error.
	require.NoError(t, st.DeleteSession(ctx, 1))
}

func TestDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	stale := model.NewDeploymentSession(1, -time.Minute)
	fresh := model.NewDeploymentSession(2, time.Hour)
	require.NoError(t, st.PutSession(ctx, stale))
	require.NoError(t, st.PutSession(ctx, fresh))

	expired, err := st.DeleteExpiredSessions(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(1), expired[0].UserID)

	sessions, err := st.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(2), sessions[0].UserID)

	// A second pass finds nothing.
	expired, err = st.DeleteExpiredSessions(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)
}
