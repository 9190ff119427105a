// Package bot is the Telegram front end: it routes commands and callbacks
// to the platform clients and the deployment wizard, and renders wizard
// results as messages and inline keyboards.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/internal/model"
	"github.com/sfwcore/herobot/internal/wizard"
)

const updateTimeout = 30

type Bot struct {
	api          *tgbotapi.BotAPI
	repo         model.Repository
	platform     model.Platform
	wiz          *wizard.Wizard
	callTimeout  time.Duration
	supportGroup string
}

func New(
	token string,
	repo model.Repository,
	platform model.Platform,
	wiz *wizard.Wizard,
	callTimeout time.Duration,
	supportGroup string,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot init error: %w", err)
	}

	return &Bot{
		api:          api,
		repo:         repo,
		platform:     platform,
		wiz:          wiz,
		callTimeout:  callTimeout,
		supportGroup: supportGroup,
	}, nil
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	log.Infof("Starting bot, account: %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info("Bot shut down")
			return
		case update := <-updates:
			b.routeUpdate(ctx, update)
		}
	}
}

func (b *Bot) routeUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("Error sending message, chat: %d: %v", chatID, err)
	}
}

func (b *Bot) sendKeyboard(
	chatID int64,
	text string,
	keyboard tgbotapi.InlineKeyboardMarkup,
) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("Error sending message, chat: %d: %v", chatID, err)
	}
}

// renderResult turns a wizard result into a message, with an inline keyboard
// when the wizard offers choices.
func (b *Bot) renderResult(chatID int64, res wizard.Result) {
	if res.Kind != wizard.KindChoices {
		b.send(chatID, res.Text)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, choice := range res.Choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				choice.Label,
				callbackBranch+choice.ID,
			),
		))
	}

	b.sendKeyboard(chatID, res.Text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}
