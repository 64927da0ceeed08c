package bot

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// mockSession implements the session interface, recording every outbound
// call for assertions.
type mockSession struct {
	mu sync.Mutex

	guilds map[string]*discordgo.Guild

	opened    bool
	closed    bool
	messages  []sentMessage
	replies   []sentMessage
	embeds    []sentEmbed
	complexes []sentComplex
	edits     []*discordgo.MessageEdit
	responses []*discordgo.InteractionResponse

	nextID int
}

type sentMessage struct {
	channelID string
	content   string
}

type sentEmbed struct {
	channelID string
	embed     *discordgo.MessageEmbed
}

type sentComplex struct {
	channelID string
	data      *discordgo.MessageSend
	messageID string
}

func newMockSession() *mockSession {
	return &mockSession{guilds: make(map[string]*discordgo.Guild)}
}

func (m *mockSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	return func() {}
}

func (m *mockSession) Guild(guildID string) (*discordgo.Guild, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guilds[guildID]
	if !ok {
		return nil, fmt.Errorf("mock: unknown guild %s", guildID)
	}
	return g, nil
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{channelID: channelID, content: content})
	return &discordgo.Message{ID: m.newID(), ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeds = append(m.embeds, sentEmbed{channelID: channelID, embed: embed})
	return &discordgo.Message{ID: m.newID(), ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID()
	m.complexes = append(m.complexes, sentComplex{channelID: channelID, data: data, messageID: id})
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, sentMessage{channelID: channelID, content: content})
	return &discordgo.Message{ID: m.newID(), ChannelID: channelID}, nil
}

func (m *mockSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, edit)
	return &discordgo.Message{ID: edit.ID, ChannelID: edit.Channel}, nil
}

func (m *mockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	return nil
}

// newID requires mu held.
func (m *mockSession) newID() string {
	m.nextID++
	return fmt.Sprintf("msg-%d", m.nextID)
}

func (m *mockSession) lastMessage() (sentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return sentMessage{}, false
	}
	return m.messages[len(m.messages)-1], true
}

func (m *mockSession) lastReply() (sentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replies) == 0 {
		return sentMessage{}, false
	}
	return m.replies[len(m.replies)-1], true
}

func (m *mockSession) lastEmbed() (sentEmbed, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.embeds) == 0 {
		return sentEmbed{}, false
	}
	return m.embeds[len(m.embeds)-1], true
}

func (m *mockSession) lastResponse() (*discordgo.InteractionResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil, false
	}
	return m.responses[len(m.responses)-1], true
}
