package notificator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlackMessage(t *testing.T) {
	msg, err := NewSlackMessage("herobot", "#deploys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "herobot", msg.Username)
	assert.Equal(t, "#deploys", msg.Channel)

	_, err = NewSlackMessage("", "#deploys", "hello")
	assert.Error(t, err)

	_, err = NewSlackMessage("herobot", "", "hello")
	assert.Error(t, err)
}

func TestSlackSend(t *testing.T) {
	var got SlackMessage

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
	defer srv.Close()

	nt := NewSlackNotificator(srv.URL)

	msg, err := NewSlackMessage("herobot", "#deploys", "deployed my-app")
	require.NoError(t, err)

	require.NoError(t, nt.Send(msg))
	assert.Equal(t, "deployed my-app", got.Text)
	assert.Equal(t, "#deploys", got.Channel)
}

func TestNewEmailMessage(t *testing.T) {
	msg, err := NewEmailMessage("bot@example.com", "admin@example.com", "subj", "body")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", msg.To)

	_, err = NewEmailMessage("", "admin@example.com", "subj", "body")
	assert.Error(t, err)
}
