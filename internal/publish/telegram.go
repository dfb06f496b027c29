// Package publish delivers finished candidates to a Telegram channel.
package publish

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rabbitresearch/satirebot/internal/logging"
	"github.com/rabbitresearch/satirebot/internal/types"
)

// Telegram caption and message length caps, in characters.
const (
	maxCaptionLength = 1024
	maxMessageLength = 4096
)

// Item is a fully prepared candidate ready for delivery.
type Item struct {
	Post           types.Post
	Summary        string
	GeneratedImage string
}

// Publisher sends items to one Telegram channel, addressed either by
// numeric chat id or @username.
type Publisher struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	username string
	footer   string
	log      logging.Logger
}

// NewPublisher connects to the bot API and resolves the channel
// address. channel is either a numeric id like "-1001234567890" or a
// public handle like "@mychannel".
func NewPublisher(token, channel, footer string, log logging.Logger) (*Publisher, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	p := &Publisher{
		bot:    bot,
		footer: footer,
		log:    log,
	}

	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		p.chatID = id
	} else {
		if !strings.HasPrefix(channel, "@") {
			channel = "@" + channel
		}
		p.username = channel
	}

	return p, nil
}

// Publish sends an item to the channel. Media goes first with the
// message as caption; when sending with media fails, the item is
// retried once as plain text so a flaky image URL never loses the post.
func (p *Publisher) Publish(item Item) error {
	message := p.buildMessage(item)

	images := item.Post.Images
	if len(images) == 0 && item.GeneratedImage != "" {
		images = []string{item.GeneratedImage}
	}

	var err error
	switch {
	case len(images) > 1:
		err = p.sendMediaGroup(images, message)
	case len(images) == 1:
		err = p.sendPhoto(images[0], message)
	default:
		return p.sendText(message)
	}

	if err != nil {
		p.log.WithError(err).Warn("media publish failed, falling back to text-only")
		return p.sendText(message)
	}
	return nil
}

func (p *Publisher) baseChat() tgbotapi.BaseChat {
	return tgbotapi.BaseChat{
		ChatID:          p.chatID,
		ChannelUsername: p.username,
	}
}

func (p *Publisher) sendText(message string) error {
	msg := tgbotapi.MessageConfig{
		BaseChat:              p.baseChat(),
		Text:                  truncate(message, maxMessageLength),
		ParseMode:             tgbotapi.ModeHTML,
		DisableWebPagePreview: true,
	}

	if _, err := p.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (p *Publisher) sendPhoto(imageURL, message string) error {
	photo := tgbotapi.PhotoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: p.baseChat(),
			File:     tgbotapi.FileURL(imageURL),
		},
		Caption:   truncate(message, maxCaptionLength),
		ParseMode: tgbotapi.ModeHTML,
	}

	if _, err := p.bot.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

// sendMediaGroup sends all images as an album; only the first item may
// carry the caption.
func (p *Publisher) sendMediaGroup(imageURLs []string, message string) error {
	media := make([]interface{}, 0, len(imageURLs))
	for i, u := range imageURLs {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(u))
		if i == 0 {
			photo.Caption = truncate(message, maxCaptionLength)
			photo.ParseMode = tgbotapi.ModeHTML
		}
		media = append(media, photo)
	}

	group := tgbotapi.MediaGroupConfig{
		ChatID:          p.chatID,
		ChannelUsername: p.username,
		Media:           media,
	}

	if _, err := p.bot.SendMediaGroup(group); err != nil {
		return fmt.Errorf("failed to send media group: %w", err)
	}
	return nil
}

// buildMessage renders the channel message: author header, summary, a
// numbered source list and the channel footer. All dynamic text is
// entity-escaped; only our own tags survive as markup.
func (p *Publisher) buildMessage(item Item) string {
	var sb strings.Builder

	sb.WriteString("🐇 <b>@")
	sb.WriteString(html.EscapeString(item.Post.Author))
	sb.WriteString("</b>\n\n")

	sb.WriteString(html.EscapeString(item.Summary))
	sb.WriteString("\n\n")

	sb.WriteString("📌 <b>Quellen:</b>\n")
	n := 1
	if item.Post.URL != "" {
		fmt.Fprintf(&sb, "%d. <a href=\"%s\">Original-Post</a>\n", n, html.EscapeString(item.Post.URL))
		n++
	}
	fmt.Fprintf(&sb, "%d. <a href=\"https://twitter.com/%s\">@%s Profil</a>\n",
		n, html.EscapeString(item.Post.Author), html.EscapeString(item.Post.Author))
	n++
	for _, u := range extractURLs(item.Post.Text) {
		if u == item.Post.URL {
			continue
		}
		fmt.Fprintf(&sb, "%d. <a href=\"%s\">%s</a>\n", n, html.EscapeString(u), html.EscapeString(u))
		n++
	}

	if p.footer != "" {
		sb.WriteString("\n")
		sb.WriteString(html.EscapeString(p.footer))
	}

	return sb.String()
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// extractURLs pulls external links out of the post text, in order,
// without duplicates.
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?)")
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// truncate caps a message at limit characters, marking the cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
