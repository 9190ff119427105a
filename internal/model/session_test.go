package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from Step
		to   Step
		want bool
	}{
		{"repository to branch", StepAwaitingRepository, StepAwaitingBranch, true},
		{"branch to app name", StepAwaitingBranch, StepAwaitingAppName, true},
		{"app name to var names", StepAwaitingAppName, StepAwaitingVarNames, true},
		{"var names to var value", StepAwaitingVarNames, StepAwaitingVarValue, true},
		{"var names straight to deploy", StepAwaitingVarNames, StepDeploying, true},
		{"var value to var value", StepAwaitingVarValue, StepAwaitingVarValue, true},
		{"var value to deploy", StepAwaitingVarValue, StepDeploying, true},
		{"skipping branch", StepAwaitingRepository, StepAwaitingAppName, false},
		{"going backwards", StepAwaitingAppName, StepAwaitingBranch, false},
		{"deploying is terminal", StepDeploying, StepAwaitingRepository, false},
		{"unknown step", Step("bogus"), StepAwaitingBranch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTransition(tt.from, tt.to))
		})
	}
}

func TestDeploymentSessionAdvance(t *testing.T) {
	sess := NewDeploymentSession(42, time.Hour)
	require.Equal(t, StepAwaitingRepository, sess.Step)

	require.NoError(t, sess.Advance(StepAwaitingBranch))
	assert.Equal(t, StepAwaitingBranch, sess.Step)

	err := sess.Advance(StepDeploying)
	require.Error(t, err)
	assert.Equal(t, StepAwaitingBranch, sess.Step, "failed advance must not move the step")
}

func TestDeploymentSessionExpired(t *testing.T) {
	sess := NewDeploymentSession(42, time.Hour)

	assert.False(t, sess.Expired(time.Now()))
	assert.True(t, sess.Expired(time.Now().Add(2*time.Hour)))
}
