package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sfwcore/herobot/internal/api"
	"github.com/sfwcore/herobot/pkg/utils"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"ls"},
	Short:   "List in-flight deployment sessions",
	Long:    `List the deployment wizard sessions currently in progress`,
	Run: func(cmd *cobra.Command, args []string) { //nolint:revive
		if err := Sessions(); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func Sessions() error {
	baseURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("error parsing url: %w", err)
	}

	baseURL.Path = path.Join(baseURL.Path, apiSessionsEndpoint)
	fullURL := baseURL.String()

	req, err := http.NewRequest(http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	encodedAPIKey := base64.StdEncoding.EncodeToString([]byte(cfg.AdminAPIKey))
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", encodedAPIKey))

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer res.Body.Close()

	var resp api.Response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	if !resp.Success {
		return fmt.Errorf(
			"failed to list sessions: %s (code: %d)",
			resp.Error.Message,
			resp.Error.Code,
		)
	}

	var sessions []api.Session

	data, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UserID\tStep\tRepo\tBranch\tApp\tVars\tExpiresIn")
	for _, sess := range sessions {
		expiresIn := sess.ExpiresAt
		if t, err := time.Parse(time.RFC3339, sess.ExpiresAt); err == nil {
			expiresIn = utils.ExpiresIn(t)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			sess.UserID,
			sess.Step,
			sess.RepoURL,
			sess.Branch,
			sess.AppName,
			strings.Join(sess.RequiredVars, ","),
			expiresIn,
		)
	}
	w.Flush()

	return nil
}
