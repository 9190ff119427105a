package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sfwcore/herobot/internal/server"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server mode",
	Long: `Server mode is the common mode for this application. It starts the
Telegram bot, the admin API and the session reaper.`,
	Run: func(cmd *cobra.Command, args []string) { //nolint:revive
		log.Infof("Version: %s", version)
		if err := server.Run(); err != nil {
			log.Fatalf("Fatal error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
