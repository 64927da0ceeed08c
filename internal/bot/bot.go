// Package bot wires the chase-game core to Discord using the Gateway WebSocket.
package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Merethin/Windstorm/internal/db"
	"github.com/Merethin/Windstorm/internal/game"
	"github.com/bwmarrin/discordgo"
)

// viewTimeout is how long a setup view stays interactive before its
// components are removed.
const viewTimeout = 5 * time.Minute

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	Guild(guildID string) (*discordgo.Guild, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}
func (r *realSession) Guild(guildID string) (*discordgo.Guild, error) {
	if g, err := r.s.State.Guild(guildID); err == nil {
		return g, nil
	}
	return r.s.Guild(guildID)
}
func (r *realSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSend(channelID, content, options...)
}
func (r *realSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendEmbed(channelID, embed, options...)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendReply(channelID, content, reference, options...)
}
func (r *realSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageEditComplex(m, options...)
}
func (r *realSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return r.s.InteractionRespond(interaction, resp, options...)
}

// Bot is the Discord frontend: it routes chat commands into the session
// registry and renders game output as embeds.
type Bot struct {
	sess     session
	token    string
	registry *game.Registry
	roles    *db.SetupRoleStore
	nation   string

	mu        sync.Mutex
	botUserID string
	setups    map[string]*setupFlow    // keyed by prompt message ID
	switchers map[string]*switcherFlow // keyed by prompt message ID
}

// BotOpts holds parameters for creating a Bot.
type BotOpts struct {
	Token    string // Discord bot token
	Registry *game.Registry
	Roles    *db.SetupRoleStore
	Nation   string // operator nation, used for jump-link attribution
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Bot.
func New(opts BotOpts) (*Bot, error) {
	if opts.Session == nil && opts.Token == "" {
		return nil, fmt.Errorf("bot: bot token is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("bot: registry is required")
	}
	if opts.Roles == nil {
		return nil, fmt.Errorf("bot: setup role store is required")
	}
	return &Bot{
		sess:      opts.Session,
		token:     opts.Token,
		registry:  opts.Registry,
		roles:     opts.Roles,
		nation:    opts.Nation,
		setups:    make(map[string]*setupFlow),
		switchers: make(map[string]*switcherFlow),
	}, nil
}

// Run connects to the Discord Gateway, registers handlers, and blocks until
// the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.sess == nil {
		dg, err := discordgo.New("Bot " + b.token)
		if err != nil {
			return fmt.Errorf("bot: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsMessageContent |
			discordgo.IntentsGuildMembers
		b.sess = &realSession{s: dg}
	}

	b.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.mu.Lock()
		b.botUserID = r.User.ID
		b.mu.Unlock()
		log.Printf("bot: logged in as %s (ID: %s)", r.User.Username, r.User.ID)
	})
	b.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(m)
	})
	b.sess.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(i)
	})

	if err := b.sess.Open(); err != nil {
		return fmt.Errorf("bot: open gateway: %w", err)
	}

	<-ctx.Done()
	log.Printf("bot: shutting down")
	if err := b.sess.Close(); err != nil {
		return fmt.Errorf("bot: close gateway: %w", err)
	}
	return nil
}

// isGameAdmin reports whether the message author is the guild owner or holds
// the configured setup role.
func (b *Bot) isGameAdmin(m *discordgo.MessageCreate) bool {
	if guild, err := b.sess.Guild(m.GuildID); err == nil && guild.OwnerID == m.Author.ID {
		return true
	}
	roleID, ok, err := b.roles.Get(m.GuildID)
	if err != nil {
		log.Printf("bot: get setup role: %v", err)
		return false
	}
	if !ok || m.Member == nil {
		return false
	}
	for _, r := range m.Member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// displayName returns the author's guild nickname when set, falling back to
// their global or account name.
func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// send posts a plain message, logging failures.
func (b *Bot) send(channelID, content string) {
	if _, err := b.sess.ChannelMessageSend(channelID, content); err != nil {
		log.Printf("bot: send message: %v", err)
	}
}

// reply posts a reply to the given message, logging failures.
func (b *Bot) reply(m *discordgo.MessageCreate, content string) {
	if _, err := b.sess.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		log.Printf("bot: send reply: %v", err)
	}
}

// sendEmbed posts an embed, logging failures.
func (b *Bot) sendEmbed(channelID string, embed *discordgo.MessageEmbed) {
	if _, err := b.sess.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Printf("bot: send embed: %v", err)
	}
}
