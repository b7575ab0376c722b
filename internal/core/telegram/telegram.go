package telegram

import (
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// BotProvider implements Provider over the Telegram Bot API with long
// polling.
type BotProvider struct {
	api *tgbotapi.BotAPI
}

func NewBotProvider(token string) (*BotProvider, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("Telegram bot authorized")
	return &BotProvider{api: api}, nil
}

func (p *BotProvider) SendMessage(chatID int64, text string) (int, error) {
	sent, err := p.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

func (p *BotProvider) SendKeyboard(chatID int64, text string, rows [][]Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = buildMarkup(rows)

	sent, err := p.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send keyboard: %w", err)
	}
	return sent.MessageID, nil
}

// buildMarkup renders inline markup when any button carries callback data,
// a resized reply keyboard otherwise.
func buildMarkup(rows [][]Button) interface{} {
	inline := false
	for _, row := range rows {
		for _, b := range row {
			if b.Data != "" {
				inline = true
			}
		}
	}

	if inline {
		var markup [][]tgbotapi.InlineKeyboardButton
		for _, row := range rows {
			var line []tgbotapi.InlineKeyboardButton
			for _, b := range row {
				line = append(line, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
			markup = append(markup, line)
		}
		return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: markup}
	}

	var markup [][]tgbotapi.KeyboardButton
	for _, row := range rows {
		var line []tgbotapi.KeyboardButton
		for _, b := range row {
			line = append(line, tgbotapi.NewKeyboardButton(b.Text))
		}
		markup = append(markup, line)
	}
	keyboard := tgbotapi.NewReplyKeyboard(markup...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func (p *BotProvider) DeleteMessage(chatID int64, messageID int) error {
	_, err := p.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (p *BotProvider) DownloadDocument(fileID string) ([]byte, error) {
	url, err := p.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (p *BotProvider) Updates() (<-chan Update, error) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	raw := p.api.GetUpdatesChan(cfg)
	out := make(chan Update)

	go func() {
		defer close(out)
		for u := range raw {
			if translated, ok := p.translate(u); ok {
				out <- translated
			}
		}
	}()
	return out, nil
}

func (p *BotProvider) translate(u tgbotapi.Update) (Update, bool) {
	if u.CallbackQuery != nil {
		cb := u.CallbackQuery
		if _, err := p.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Warn().Err(err).Msg("answer callback failed")
		}
		if cb.Message == nil {
			return Update{}, false
		}
		return Update{
			ChatID:      cb.Message.Chat.ID,
			UserID:      cb.From.ID,
			DisplayName: cb.From.FirstName,
			Callback:    cb.Data,
			MessageID:   cb.Message.MessageID,
		}, true
	}

	if u.Message == nil || u.Message.From == nil {
		return Update{}, false
	}

	msg := u.Message
	out := Update{
		ChatID:      msg.Chat.ID,
		UserID:      msg.From.ID,
		DisplayName: displayName(msg.From),
		Text:        msg.Text,
		MessageID:   msg.MessageID,
	}
	if msg.Document != nil {
		out.Document = &Document{
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			MimeType: msg.Document.MimeType,
		}
	}
	return out, true
}

func displayName(user *tgbotapi.User) string {
	if user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	return user.FirstName
}

func (p *BotProvider) Close() {
	p.api.StopReceivingUpdates()
}
