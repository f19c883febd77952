package events

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func (r *recorder) Close() error { return nil }

type fakeSender struct {
	channel  string
	content  []string
	mentions []*discordgo.MessageAllowedMentions
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = append(f.content, data.Content)
	f.mentions = append(f.mentions, data.AllowedMentions)
	return &discordgo.Message{Content: data.Content}, nil
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("broker down")}

	err := Multi{ok, bad}.Publish(context.Background(), Event{Type: PostCreated, EntityID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, ok.got, 1)
	assert.Len(t, bad.got, 1)
}

func TestEmitStampsTimeAndSwallowsErrors(t *testing.T) {
	r := &recorder{err: errors.New("nope")}
	Emit(context.Background(), r, zap.NewNop(), Event{Type: BlogDeleted, EntityID: "b1"})

	require.Len(t, r.got, 1)
	assert.False(t, r.got[0].At.IsZero())

	Emit(context.Background(), nil, zap.NewNop(), Event{Type: BlogDeleted})
}

func TestDiscordAnnouncesNewPostsOnly(t *testing.T) {
	sender := &fakeSender{}
	d := &Discord{session: sender, channelID: "chan-1", siteURL: "https://fund.example.org"}
	ctx := context.Background()

	require.NoError(t, d.Publish(ctx, Event{Type: PostCreated, EntityID: "p1", CampaignID: "4", Title: "Wells drilled"}))
	require.NoError(t, d.Publish(ctx, Event{Type: PostCommented, EntityID: "p1"}))

	require.Len(t, sender.content, 1)
	assert.Equal(t, "chan-1", sender.channel)
	assert.Contains(t, sender.content[0], "Wells drilled")
	assert.Contains(t, sender.content[0], "<https://fund.example.org/campaign-details/4>")
}

func TestDiscordEscapesTitles(t *testing.T) {
	sender := &fakeSender{}
	d := &Discord{session: sender, channelID: "chan-1"}

	require.NoError(t, d.Publish(context.Background(), Event{Type: BlogCreated, EntityID: "b1", Title: "**Big** news @everyone"}))

	require.Len(t, sender.content, 1)
	assert.Equal(t, "📝 New blog post: **\\*\\*Big\\*\\* news @\u200beveryone**", sender.content[0])
	require.NotNil(t, sender.mentions[0])
	assert.Empty(t, sender.mentions[0].Parse)
}

func TestWrapURLsNoEmbed(t *testing.T) {
	assert.Equal(t, "see <https://a.io/x>.", wrapURLsNoEmbed("see https://a.io/x."))
	assert.Equal(t, "no links", wrapURLsNoEmbed("no links"))
}
