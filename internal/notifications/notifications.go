package notifications

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/pkg/notificator"
)

type Notificator struct {
	*SlackConfig
	*EmailConfig
}

type SlackConfig struct {
	AdminChannel string
	Enabled      bool
	SenderName   string
	WebhookURL   string

	SlackNotificator *notificator.SlackNotificator
}

type EmailConfig struct {
	Enabled           bool
	SMTPServerAddress string
	SMTPServerPort    int
	Username          string
	Password          string
	SenderEmail       string
	AdminEmail        string

	EmailNotificator *notificator.EmailNotificator
}

func New(slackCfg *SlackConfig, emailCfg *EmailConfig) *Notificator {
	if slackCfg.Enabled {
		slackCfg.SlackNotificator = notificator.NewSlackNotificator(slackCfg.WebhookURL)
	}

	if emailCfg.Enabled {
		emailCfg.EmailNotificator = notificator.NewEmailNotificator(
			emailCfg.SMTPServerAddress,
			emailCfg.SMTPServerPort,
			emailCfg.Username,
			emailCfg.Password,
		)
	}

	return &Notificator{
		SlackConfig: slackCfg,
		EmailConfig: emailCfg,
	}
}

var activityMessage = `
**Deployment activity, user: %d**
Action: %s
Details: %s
`

// SendDeployActivity reports one wizard event to the admin channel. Activity
// is advisory: a delivery failure never blocks the wizard.
func (nt *Notificator) SendDeployActivity(
	userID int64,
	action string,
	details string,
) error {
	log.Infof(
		"Sending deploy activity, user: %d, action: %s",
		userID, action,
	)

	if nt.SlackConfig.Enabled {
		msg, err := notificator.NewSlackMessage(
			nt.SlackConfig.SenderName,
			nt.AdminChannel,
			fmt.Sprintf(
				activityMessage,
				userID,
				action,
				details,
			))

		if err != nil {
			return fmt.Errorf("error creating slack message: %w", err)
		}

		if err := nt.SlackNotificator.Send(msg); err != nil {
			return fmt.Errorf(
				"error sending slack notification, user: %d: %w",
				userID, err,
			)
		}
	}

	if nt.EmailConfig.Enabled {
		msg, err := notificator.NewEmailMessage(
			nt.SenderEmail,
			nt.AdminEmail,
			fmt.Sprintf("Deployment activity, user: %d", userID),
			fmt.Sprintf(activityMessage, userID, action, details),
		)

		if err != nil {
			return fmt.Errorf("error creating email message: %w", err)
		}

		if err := nt.EmailNotificator.Send(msg); err != nil {
			return fmt.Errorf(
				"error sending email notification, user: %d: %w",
				userID, err,
			)
		}
	}

	return nil
}
