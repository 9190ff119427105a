package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	apiCredentialsEndpoint = "/api/credentials"
	apiSessionsEndpoint    = "/api/sessions"
)

var keyCmd = &cobra.Command{
	Use:     "key",
	Aliases: []string{"credential"},
	Short:   "Operations with user API keys",
	Long:    `Key command group allows to manage stored user API keys`,
	Run: func(cmd *cobra.Command, args []string) { //nolint:revive
		log.Info("key called")
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
}
