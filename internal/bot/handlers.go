package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/internal/model"
)

const (
	callbackBranch   = "branch:"
	callbackApp      = "app:"
	callbackRestart  = "restart:"
	callbackLogs     = "logs:"
	callbackDownload = "download:"

	// Telegram rejects messages over 4096 characters; logs are trimmed to
	// their tail to stay under it.
	maxMessageLen = 4000
)

const helpText = `Available commands:
/setkey <api-key> - save your Heroku API key
/removekey - delete your API key
/apps - list your apps
/restart - restart an app
/restart_all - restart all your apps
/logs - fetch recent logs of an app
/download - get a download link for an app slug
/download_all - get download links for all your apps
/deploy - deploy a GitHub repository as a new app
/cancel - abort the deployment in progress`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	log.Debugf("Command received, user: %d, command: %s", userID, msg.Command())

	switch msg.Command() {
	case "start", "help":
		text := "👋 I deploy and manage your Heroku apps.\n\n" + helpText
		if b.supportGroup != "" {
			text += "\n\nNeed help? Join " + b.supportGroup
		}
		b.send(chatID, text)
	case "setkey":
		b.handleSetKey(ctx, msg)
	case "removekey":
		b.handleRemoveKey(ctx, userID, chatID)
	case "apps":
		b.handleApps(ctx, userID, chatID)
	case "restart":
		b.handleAppPicker(ctx, userID, chatID, callbackRestart, "🔄 Pick an app to restart:")
	case "restart_all":
		b.handleRestartAll(ctx, userID, chatID)
	case "logs":
		b.handleAppPicker(ctx, userID, chatID, callbackLogs, "📋 Pick an app to fetch logs from:")
	case "download":
		b.handleAppPicker(ctx, userID, chatID, callbackDownload, "📦 Pick an app to download:")
	case "download_all":
		b.handleDownloadAll(ctx, userID, chatID)
	case "deploy":
		b.renderResult(chatID, b.wiz.Start(ctx, userID))
	case "cancel":
		b.renderResult(chatID, b.wiz.Cancel(ctx, userID))
	default:
		b.send(chatID, "❓ Unknown command.\n\n"+helpText)
	}
}

// handleText feeds any non-command message to the wizard: outside a session
// the wizard answers with its "no deployment in progress" rejection.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	b.renderResult(msg.Chat.ID, b.wiz.SubmitInput(ctx, msg.From.ID, msg.Text))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	data := cb.Data

	// Acknowledge first so the client stops showing the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Errorf("Error acknowledging callback, user: %d: %v", userID, err)
	}

	switch {
	case strings.HasPrefix(data, callbackBranch):
		branch := strings.TrimPrefix(data, callbackBranch)
		b.renderResult(chatID, b.wiz.SelectOption(ctx, userID, branch))
	case strings.HasPrefix(data, callbackApp):
		b.handleAppInfo(ctx, userID, chatID, strings.TrimPrefix(data, callbackApp))
	case strings.HasPrefix(data, callbackRestart):
		b.handleRestart(ctx, userID, chatID, strings.TrimPrefix(data, callbackRestart))
	case strings.HasPrefix(data, callbackLogs):
		b.handleLogs(ctx, userID, chatID, strings.TrimPrefix(data, callbackLogs))
	case strings.HasPrefix(data, callbackDownload):
		b.handleDownload(ctx, userID, chatID, strings.TrimPrefix(data, callbackDownload))
	default:
		log.Warnf("Unknown callback data, user: %d: %s", userID, data)
	}
}

func (b *Bot) handleSetKey(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	key := strings.TrimSpace(msg.CommandArguments())
	if key == "" {
		b.send(chatID, "❌ Usage: /setkey <api-key>")
		return
	}

	// The message holds a secret, remove it from the chat history whether
	// or not the key turns out valid.
	del := tgbotapi.NewDeleteMessage(chatID, msg.MessageID)
	if _, err := b.api.Request(del); err != nil {
		log.Errorf("Error deleting key message, user: %d: %v", userID, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	valid, err := b.platform.ValidateToken(callCtx, key)
	if err != nil {
		log.Errorf("Error validating token, user: %d: %v", userID, err)
		b.send(chatID, "🔥 Could not reach Heroku, try again later")
		return
	}
	if !valid {
		b.send(chatID, "❌ Heroku rejected this key, check it and try again")
		return
	}

	if err := b.repo.SetToken(ctx, userID, key); err != nil {
		log.Errorf("Error saving token, user: %d: %v", userID, err)
		b.send(chatID, "⚠️ Internal error, please try again later")
		return
	}

	log.Infof("API key set, user: %d", userID)
	b.send(chatID, "✅ API key saved. Your message with the key was deleted.")
}

func (b *Bot) handleRemoveKey(ctx context.Context, userID, chatID int64) {
	if _, err := b.repo.GetToken(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			b.send(chatID, "❌ You have no saved API key")
			return
		}
		log.Errorf("Error getting token, user: %d: %v", userID, err)
		b.send(chatID, "⚠️ Internal error, please try again later")
		return
	}

	if err := b.repo.DeleteToken(ctx, userID); err != nil {
		log.Errorf("Error deleting token, user: %d: %v", userID, err)
		b.send(chatID, "⚠️ Internal error, please try again later")
		return
	}

	// A credential removal also invalidates any wizard draft.
	if err := b.repo.DeleteSession(ctx, userID); err != nil {
		log.Errorf("Error deleting session, user: %d: %v", userID, err)
	}

	log.Infof("API key removed, user: %d", userID)
	b.send(chatID, "✅ API key removed")
}

func (b *Bot) handleApps(ctx context.Context, userID, chatID int64) {
	b.handleAppPicker(ctx, userID, chatID, callbackApp, "📱 Your apps, tap one for details:")
}

func (b *Bot) handleAppInfo(ctx context.Context, userID, chatID int64, name string) {
	token, ok := b.userToken(ctx, userID, chatID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	app, err := b.platform.GetApp(callCtx, token, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			b.send(chatID, fmt.Sprintf("❌ App %q not found", name))
			return
		}
		log.Errorf("Error getting app %s, user: %d: %v", name, userID, err)
		b.send(chatID, "🔥 Could not reach Heroku, try again later")
		return
	}

	b.send(chatID, fmt.Sprintf(
		"📱 %s\n🌐 %s\n🆔 %s\n📅 Created: %s\n♻️ Updated: %s",
		app.Name, app.WebURL, app.ID, app.CreatedAt, app.UpdatedAt,
	))
}

// handleAppPicker renders the user's apps as an inline keyboard whose
// callbacks carry the given prefix.
func (b *Bot) handleAppPicker(
	ctx context.Context,
	userID, chatID int64,
	prefix, title string,
) {
	token, ok := b.userToken(ctx, userID, chatID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	apps, err := b.platform.ListApps(callCtx, token)
	if err != nil {
		log.Errorf("Error listing apps, user: %d: %v", userID, err)
		b.send(chatID, "🔥 Could not reach Heroku, try again later")
		return
	}

	if len(apps) == 0 {
		b.send(chatID, "📭 You have no apps")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, app := range apps {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(app.Name, prefix+app.Name),
		))
	}

	b.sendKeyboard(chatID, title, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleRestart(ctx context.Context, userID, chatID int64, name string) {
	token, ok := b.userToken(ctx, userID, chatID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	if err := b.platform.RestartApp(callCtx, token, name); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			b.send(chatID, fmt.Sprintf("❌ App %q not found", name))
			return
		}
		log.Errorf("Error restarting app %s, user: %d: %v", name, userID, err)
		b.send(chatID, "🔥 Could not reach Heroku, try again later")
		return
	}

	log.Infof("App restarted, user: %d, app: %s", userID, name)
	b.send(chatID, fmt.Sprintf("🔄 Restarted %q", name))
}

func (b *Bot) handleRestartAll(ctx context.Context, userID, chatID int64) {
	token, ok := b.userToken(ctx, userID, chatID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	apps, err := b.platform.ListApps(callCtx, token)
	if err != nil {
		log.Errorf("Error listing apps, user: %d: %v", userID, err)
		b.send(chatID, "🔥 Could not reach Heroku, try again later")
		return
	}

	if len(apps) == 0 {
		b.send(chatID, "📭 You have no apps")
		return
	}

	var failed []string
	for _, app := range apps {
		if err := b.platform.RestartApp(callCtx, token, app.Name); err != nil {
			log.Errorf(
				"Error restarting app %s, user: %d: %v",
				app.Name, userID, err,
			)
			failed = append(failed, app.Name)
		}
	}

	if len(failed) > 0 {
		b.send(chatID, fmt.Sprintf(
			"⚠️ Restarted %d of %d apps, failed: %s",
			len(apps)-len(failed), len(apps), strings.Join(failed, ", "),
		))
		return
	}

	b.send(chatID, fmt.Sprintf("🔄 Restarted all %d apps", len(apps)))
}

func (b *Bot) handleLogs(ctx context.Context, userID, chatID int64, name string) {
	token, ok := b.userToken(ctx, userID, chatID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	logs, err := b.platform.GetLogs(callCtx, token, name, 0)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			b.send(chatID, fmt.Sprintf("❌ App %q not found", name))
			return
		}
		log.Errorf("Error fetching logs for %s, user: %d: %v", name, userID, err)
		b.send(chatID, "🔥 Could not reach Heroku, try again later")
		return
	}

	logs = strings.TrimSpace(logs)
	if logs == "" {
		b.send(chatID, fmt.Sprintf("📭 No recent logs for %q", name))
		return
	}

	if len(logs) > maxMessageLen {
		logs = logs[len(logs)-maxMessageLen:]
	}

	b.send(chatID, fmt.Sprintf("📋 Logs for %q:\n\n%s", name, logs))
}

func (b *Bot) handleDownload(ctx context.Context, userID, chatID int64, name string) {
	token, ok := b.userToken(ctx, userID, chatID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	url, err := b.platform.SlugURL(callCtx, token, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			b.send(chatID, fmt.Sprintf("❌ App %q not found", name))
			return
		}
		log.Errorf("Error resolving slug for %s, user: %d: %v", name, userID, err)
		b.send(chatID, "🔥 Could not fetch a download link, try again later")
		return
	}

	b.send(chatID, fmt.Sprintf(
		"📦 Download link for %q (expires shortly):\n%s", name, url,
	))
}

func (b *Bot) handleDownloadAll(ctx context.Context, userID, chatID int64) {
	token, ok := b.userToken(ctx, userID, chatID)
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	apps, err := b.platform.ListApps(callCtx, token)
	if err != nil {
		log.Errorf("Error listing apps, user: %d: %v", userID, err)
		b.send(chatID, "🔥 Could not reach Heroku, try again later")
		return
	}

	if len(apps) == 0 {
		b.send(chatID, "📭 You have no apps")
		return
	}

	// One link per message: the signed URLs are long and a combined message
	// would hit the length limit fast.
	var failed []string
	for _, app := range apps {
		slugCtx, cancelSlug := context.WithTimeout(ctx, b.callTimeout)
		url, err := b.platform.SlugURL(slugCtx, token, app.Name)
		cancelSlug()
		if err != nil {
			log.Errorf(
				"Error resolving slug for %s, user: %d: %v",
				app.Name, userID, err,
			)
			failed = append(failed, app.Name)
			continue
		}

		b.send(chatID, fmt.Sprintf("📦 %s:\n%s", app.Name, url))
	}

	if len(failed) > 0 {
		b.send(chatID, fmt.Sprintf(
			"⚠️ No download link for: %s", strings.Join(failed, ", "),
		))
	}
}

// userToken resolves the caller's stored API key, prompting for /setkey when
// there is none.
func (b *Bot) userToken(ctx context.Context, userID, chatID int64) (string, bool) {
	token, err := b.repo.GetToken(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			b.send(chatID, "❌ First set your API key using /setkey")
			return "", false
		}
		log.Errorf("Error getting token, user: %d: %v", userID, err)
		b.send(chatID, "⚠️ Internal error, please try again later")
		return "", false
	}

	return token, true
}
