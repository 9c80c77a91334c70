// Package service provides the core logic of the CityCard Telegram bot.
// It answers chat messages and inline queries with the rule-based responder
// and keeps the reply language chosen by each chat.
package service

import (
	"strings"
	"unicode/utf8"

	"github.com/DenisKhanov/CitySupport/internal/responder"
	"github.com/DenisKhanov/CitySupport/internal/tg_bot/constant"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// inlineDescriptionLen is the longest reply preview shown in inline results.
const inlineDescriptionLen = 120

// Composer answers a chat message and renders the menu.
type Composer interface {
	Compose(message string, lang responder.Language) responder.Reply
	Menu(lang responder.Language) string
}

// The ChatStateRepository defines the interface for chat state persistence.
type ChatStateRepository interface {
	SetLanguage(chatID int64, lang string)
	Language(chatID int64) (string, bool)
}

// Sender is the part of the Telegram Bot API used by the bot.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TgBotServices is the main service struct for the Telegram bot, integrating all dependencies.
type TgBotServices struct {
	Composer      Composer            // Rule-based responder
	StateRepo     ChatStateRepository // Chat language choices
	Bot           Sender              // Telegram Bot API instance
	TicketFormURL string              // Web form offered when a reply needs a ticket, may be empty
}

// NewTgBot creates a new TgBotServices instance with the specified dependencies.
// Arguments:
//   - composer: the responder answering messages.
//   - stateRepository: chat state repository.
//   - bot: Telegram Bot API instance.
//   - ticketFormURL: ticket form link; empty disables the ticket button.
//
// Returns a pointer to a TgBotServices.
func NewTgBot(composer Composer, stateRepository ChatStateRepository, bot Sender, ticketFormURL string) *TgBotServices {
	return &TgBotServices{
		Composer:      composer,
		StateRepo:     stateRepository,
		Bot:           bot,
		TicketFormURL: ticketFormURL,
	}
}

// sendMessage sends a message to the specified chat with optional reply and markup.
// Arguments:
//   - chatID: the ID of the chat to send the message to.
//   - text: the text content of the message.
//   - replyToID: the ID of the message to reply to (0 if no reply).
//   - markup: an optional keyboard or inline markup (nil if none).
//
// Returns an error if the message fails to send.
func (b *TgBotServices) sendMessage(chatID int64, text string, replyToID int, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyToID != 0 {
		msg.ReplyToMessageID = replyToID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := b.Bot.Send(msg)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d", chatID)
	}
	return err
}

// languageFor returns the stored language of chatID or, without one, the
// language derived from the Telegram client of user.
func (b *TgBotServices) languageFor(chatID int64, user *tgbotapi.User) responder.Language {
	if stored, ok := b.StateRepo.Language(chatID); ok {
		if lang, err := responder.ParseLanguage(stored); err == nil {
			return lang
		}
	}
	if user == nil {
		return responder.LanguageAZ
	}
	return LanguageFromCode(user.LanguageCode)
}

// LanguageFromCode maps a Telegram client language code to a reply language.
// Russian and the languages whose speakers usually read Russian map to ru, the rest to az.
func LanguageFromCode(code string) responder.Language {
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	switch code {
	case "ru", "uk", "be", "kk":
		return responder.LanguageRU
	}
	return responder.LanguageAZ
}

// command returns the lowercased command of text without a @botname suffix,
// or "" when text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// ticketMarkup returns the inline button linking to the ticket form, or nil
// when no form is configured.
func (b *TgBotServices) ticketMarkup(lang responder.Language) interface{} {
	if b.TicketFormURL == "" {
		return nil
	}
	text := constant.BUTTON_TEXT_TICKET_AZ
	if lang == responder.LanguageRU {
		text = constant.BUTTON_TEXT_TICKET_RU
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(text, b.TicketFormURL)),
	)
}

// setLanguage stores lang for chatID and confirms it with the menu.
func (b *TgBotServices) setLanguage(chatID int64, lang responder.Language) error {
	b.StateRepo.SetLanguage(chatID, string(lang))
	confirm := constant.MSG_LANGUAGE_AZ
	if lang == responder.LanguageRU {
		confirm = constant.MSG_LANGUAGE_RU
	}
	if err := b.sendMessage(chatID, confirm, 0, nil); err != nil {
		return err
	}
	return b.sendMessage(chatID, b.Composer.Menu(lang), 0, nil)
}

// answer composes the reply to text and sends it, with the ticket button when
// the responder asks for a human.
func (b *TgBotServices) answer(msg *tgbotapi.Message, lang responder.Language) error {
	reply := b.Composer.Compose(msg.Text, lang)
	logrus.WithFields(logrus.Fields{
		"chatID":      msg.Chat.ID,
		"language":    lang,
		"category":    reply.Category,
		"source":      reply.Source,
		"needsTicket": reply.NeedsTicket,
	}).Info("Chat reply composed")

	var markup interface{}
	if reply.NeedsTicket {
		markup = b.ticketMarkup(lang)
	}
	return b.sendMessage(msg.Chat.ID, reply.Text, msg.MessageID, markup)
}

// HandleInlineQuery answers an inline query with the composed reply, or with
// the menu when the query is empty.
func (b *TgBotServices) HandleInlineQuery(query *tgbotapi.InlineQuery) {
	lang := responder.LanguageAZ
	if query.From != nil {
		lang = b.languageFor(query.From.ID, query.From)
	}

	text := b.Composer.Menu(lang)
	if strings.TrimSpace(query.Query) != "" {
		text = b.Composer.Compose(query.Query, lang).Text
	}

	title := constant.INLINE_TITLE_AZ
	if lang == responder.LanguageRU {
		title = constant.INLINE_TITLE_RU
	}
	article := tgbotapi.NewInlineQueryResultArticle(query.ID, title, text)
	article.Description = preview(text)

	inlineConf := tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       []interface{}{article},
		CacheTime:     0,
		IsPersonal:    true,
	}
	if _, err := b.Bot.Request(inlineConf); err != nil {
		logrus.WithError(err).Error("Failed to send inline query response")
	}
}

// preview shortens text to inlineDescriptionLen runes on a rune boundary.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= inlineDescriptionLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:inlineDescriptionLen-1]) + "…"
}

// UpdateProcessing processes incoming Telegram updates: commands, text
// messages and inline queries.
// Arguments:
//   - update: the Telegram update to process.
func (b *TgBotServices) UpdateProcessing(update *tgbotapi.Update) {
	if update.InlineQuery != nil {
		b.HandleInlineQuery(update.InlineQuery)
		return
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	chatID := msg.Chat.ID
	lang := b.languageFor(chatID, msg.From)

	var err error
	switch command(msg.Text) {
	case constant.COMMAND_START, constant.COMMAND_MENU:
		if msg.From != nil {
			logrus.Infof("Message [%s] from %s (chat %d)", msg.Text, msg.From.UserName, chatID)
		}
		err = b.sendMessage(chatID, b.Composer.Menu(lang), 0, nil)
	case constant.COMMAND_AZ:
		err = b.setLanguage(chatID, responder.LanguageAZ)
	case constant.COMMAND_RU:
		err = b.setLanguage(chatID, responder.LanguageRU)
	default:
		if strings.TrimSpace(msg.Text) == "" {
			notice := constant.MSG_ONLY_TEXT_AZ
			if lang == responder.LanguageRU {
				notice = constant.MSG_ONLY_TEXT_RU
			}
			err = b.sendMessage(chatID, notice, msg.MessageID, nil)
			break
		}
		err = b.answer(msg, lang)
	}
	if err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Error("Failed to process update")
	}
}
