package events

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var (
	urlNoEmbedRegex = regexp.MustCompile(`https?://[^\s\[\]()<>]+`)
	markdownEscaper = strings.NewReplacer(
		`\`, `\\`, "*", `\*`, "_", `\_`, "~", `\~`, "`", "\\`",
		"|", `\|`, ">", `\>`, "#", `\#`, "[", `\[`, "]", `\]`, "@", "@\u200b",
	)
)

// channelSender is the part of *discordgo.Session the announcer uses.
type channelSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord announces newly published content to a community channel.
// Other event types are ignored.
type Discord struct {
	session   channelSender
	closer    func() error
	channelID string
	siteURL   string
}

func NewDiscord(token, channelID, siteURL string) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	return &Discord{session: s, closer: s.Close, channelID: channelID, siteURL: strings.TrimRight(siteURL, "/")}, nil
}

func (d *Discord) Publish(ctx context.Context, ev Event) error {
	msg := d.format(ev)
	if msg == "" {
		return nil
	}
	_, err := d.session.ChannelMessageSendComplex(d.channelID, &discordgo.MessageSend{
		Content:         wrapURLsNoEmbed(msg),
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}, discordgo.WithContext(ctx))
	return err
}

func (d *Discord) format(ev Event) string {
	switch ev.Type {
	case PostCreated:
		msg := fmt.Sprintf("📣 New update for campaign #%s: **%s**", escapeMarkdown(ev.CampaignID), escapeMarkdown(ev.Title))
		if d.siteURL != "" {
			msg += fmt.Sprintf("\n%s/campaign-details/%s", d.siteURL, ev.CampaignID)
		}
		return msg
	case BlogCreated:
		msg := fmt.Sprintf("📝 New blog post: **%s**", escapeMarkdown(ev.Title))
		if d.siteURL != "" {
			msg += fmt.Sprintf("\n%s/blog/%s", d.siteURL, ev.EntityID)
		}
		return msg
	default:
		return ""
	}
}

func (d *Discord) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

// escapeMarkdown keeps user text from changing the announcement's formatting
// or pinging anyone.
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// wrapURLsNoEmbed wraps bare URLs in angle brackets so Discord skips link previews.
func wrapURLsNoEmbed(text string) string {
	return urlNoEmbedRegex.ReplaceAllStringFunc(text, func(u string) string {
		trimmed := strings.TrimRight(u, ".,;:!?")
		return "<" + trimmed + ">" + u[len(trimmed):]
	})
}
