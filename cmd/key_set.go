package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sfwcore/herobot/internal/api"
)

var (
	keyUserID int64
	keyToken  string
)

var keySetCmd = &cobra.Command{
	Use:     "set",
	Aliases: []string{"add"},
	Short:   "Set user API key",
	Long:    `Set the Heroku API key stored for a Telegram user`,
	Run: func(cmd *cobra.Command, args []string) { //nolint:revive
		if err := KeySet(); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)

	keySetCmd.Flags().
		Int64VarP(&keyUserID, "user-id", "u", 0, "Telegram user id")
	keySetCmd.Flags().
		StringVarP(&keyToken, "token", "t", "", "Heroku API key")

	if err := keySetCmd.MarkFlagRequired("user-id"); err != nil {
		log.Fatalf("Error: %v", err)
	}
	if err := keySetCmd.MarkFlagRequired("token"); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func KeySet() error {
	cred := api.Credential{
		UserID: keyUserID,
		Token:  keyToken,
	}

	baseURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("error parsing url: %w", err)
	}

	baseURL.Path = path.Join(baseURL.Path, apiCredentialsEndpoint)
	fullURL := baseURL.String()

	jsonData, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("error marshaling json: %w", err)
	}

	req, err := http.NewRequest(
		http.MethodPut,
		fullURL,
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	encodedAPIKey := base64.StdEncoding.EncodeToString([]byte(cfg.AdminAPIKey))
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", encodedAPIKey))
	req.Header.Set("Content-Type", "application/json")

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
			"failed to set key: %s (code: %d)",
			resp.Error.Message,
			resp.Error.Code,
		)
	}

	fmt.Printf("Key for user %d set successfully\n", keyUserID)

	return nil
}
