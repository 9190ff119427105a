package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sfwcore/herobot/internal/api"
)

var keyDeleteUserID int64

var keyDeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove", "rm"},
	Short:   "Delete user API key",
	Long:    `Delete the Heroku API key stored for a Telegram user`,
	Run: func(cmd *cobra.Command, args []string) { //nolint:revive
		if err := KeyDelete(); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func init() {
	keyCmd.AddCommand(keyDeleteCmd)

	keyDeleteCmd.Flags().
		Int64VarP(&keyDeleteUserID, "user-id", "u", 0, "Telegram user id")

	if err := keyDeleteCmd.MarkFlagRequired("user-id"); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func KeyDelete() error {
	baseURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("error parsing url: %w", err)
	}

	baseURL.Path = path.Join(
		baseURL.Path,
		apiCredentialsEndpoint,
		strconv.FormatInt(keyDeleteUserID, 10),
	)
	fullURL := baseURL.String()

	req, err := http.NewRequest(http.MethodDelete, fullURL, http.NoBody)
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
			"failed to delete key: %s (code: %d)",
			resp.Error.Message,
			resp.Error.Code,
		)
	}

	fmt.Printf("Key for user %d deleted successfully\n", keyDeleteUserID)

	return nil
}
