package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/internal/model"
)

// Session is the wire form of one in-flight deployment. Collected var values
// are never exposed, only their names.
type Session struct {
	UserID       int64    `json:"user_id"`
	Step         string   `json:"step"`
	RepoURL      string   `json:"repo_url"`
	Branch       string   `json:"branch"`
	AppName      string   `json:"app_name"`
	RequiredVars []string `json:"required_vars"`
	ExpiresAt    string   `json:"expires_at"`
}

type Credential struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

func (a *API) getSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.Repository.ListSessions(r.Context())
	if err != nil {
		log.Errorf("Error getting sessions: %v", err)
		sendErrorResponse(
			w,
			http.StatusInternalServerError,
			"error getting sessions",
		)
		return
	}

	resp := make([]Session, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, Session{
			UserID:       sess.UserID,
			Step:         string(sess.Step),
			RepoURL:      sess.RepoURL,
			Branch:       sess.Branch,
			AppName:      sess.AppName,
			RequiredVars: sess.RequiredVars,
			ExpiresAt:    sess.ExpiresAt.Format(time.RFC3339),
		})
	}

	sendSuccessResponse(w, resp)
}

func (a *API) setCredential(w http.ResponseWriter, r *http.Request) {
	var cred Credential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		log.Errorf("Error decoding request: %v", err)
		sendErrorResponse(w, http.StatusBadRequest, "error decoding request")
		return
	}

	if cred.UserID == 0 || cred.Token == "" {
		sendErrorResponse(w, http.StatusBadRequest, "user_id and token are required")
		return
	}

	if err := a.Repository.SetToken(r.Context(), cred.UserID, cred.Token); err != nil {
		log.Errorf("Error setting token, user: %d: %v", cred.UserID, err)
		sendErrorResponse(
			w,
			http.StatusInternalServerError,
			"error setting token",
		)
		return
	}

	log.Infof("Token set via API, user: %d", cred.UserID)
	sendSuccessResponse(w, Credential{UserID: cred.UserID})
}

func (a *API) deleteCredential(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if _, err := a.Repository.GetToken(r.Context(), userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			sendErrorResponse(w, http.StatusNotFound, "credential not found")
			return
		}
		log.Errorf("Error getting token, user: %d: %v", userID, err)
		sendErrorResponse(
			w,
			http.StatusInternalServerError,
			"error getting token",
		)
		return
	}

	if err := a.Repository.DeleteToken(r.Context(), userID); err != nil {
		log.Errorf("Error deleting token, user: %d: %v", userID, err)
		sendErrorResponse(
			w,
			http.StatusInternalServerError,
			"error deleting token",
		)
		return
	}

	log.Infof("Token deleted via API, user: %d", userID)
	sendSuccessResponse(w, Credential{UserID: userID})
}
