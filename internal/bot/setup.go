package bot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Merethin/Windstorm/internal/game"
	"github.com/bwmarrin/discordgo"
)

// Component and modal custom IDs. Modal IDs carry the prompt message ID as a
// suffix so the submit can be matched back to its flow.
const (
	customIDSetupResults   = "windstorm:setup:results"
	customIDSetupChasers   = "windstorm:setup:chasers"
	customIDSetupTrainers  = "windstorm:setup:trainers"
	customIDSetupTargets   = "windstorm:setup:targets"
	modalIDSetupPrefix     = "windstorm:setup:modal:"
	customIDSwitchersOpen  = "windstorm:switchers:open"
	modalIDSwitchersPrefix = "windstorm:switchers:modal:"
)

// setupFlow tracks one in-progress "!setup_session" view.
type setupFlow struct {
	guildID   string
	channelID string
	userID    string
	messageID string

	results  string
	chasers  string
	trainers string

	timer *time.Timer
}

// switcherFlow tracks one in-progress "!link_switchers" view.
type switcherFlow struct {
	guildID   string
	channelID string
	userID    string
	userName  string
	messageID string

	timer *time.Timer
}

// cmdSetupSession launches the interactive session setup view: three channel
// select menus and a button opening the targets modal.
func (b *Bot) cmdSetupSession(m *discordgo.MessageCreate) {
	if !b.isGameAdmin(m) {
		b.reply(m, "You are not allowed to do that!")
		return
	}

	msg, err := b.sess.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:    "Select the required channels below and then press the 'Set Targets' button to enter a target list.",
		Components: setupComponents(),
	})
	if err != nil {
		log.Printf("bot: send setup view: %v", err)
		return
	}

	flow := &setupFlow{
		guildID:   m.GuildID,
		channelID: m.ChannelID,
		userID:    m.Author.ID,
		messageID: msg.ID,
	}
	flow.timer = time.AfterFunc(viewTimeout, func() { b.expireSetup(msg.ID) })

	b.mu.Lock()
	b.setups[msg.ID] = flow
	b.mu.Unlock()
}

// cmdLinkSwitchers launches the switcher-linking view. Requires an active
// session; the trainer flag is derived from the channel the command was
// issued in.
func (b *Bot) cmdLinkSwitchers(m *discordgo.MessageCreate, _ *game.Session) {
	if !b.isGameAdmin(m) {
		b.reply(m, "You are not allowed to do that!")
		return
	}

	msg, err := b.sess.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content: "Press the button below to enter a list of switchers.\n" +
			"Your previous switchers will not be cleared. Run !unlink for that.",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Link Switchers",
					Style:    discordgo.PrimaryButton,
					CustomID: customIDSwitchersOpen,
				},
			}},
		},
	})
	if err != nil {
		log.Printf("bot: send switcher view: %v", err)
		return
	}

	flow := &switcherFlow{
		guildID:   m.GuildID,
		channelID: m.ChannelID,
		userID:    m.Author.ID,
		userName:  displayName(m),
		messageID: msg.ID,
	}
	flow.timer = time.AfterFunc(viewTimeout, func() { b.expireSwitchers(msg.ID) })

	b.mu.Lock()
	b.switchers[msg.ID] = flow
	b.mu.Unlock()
}

// setupComponents builds the three channel dropdowns and the targets button.
func setupComponents() []discordgo.MessageComponent {
	channelRow := func(customID, placeholder string) discordgo.MessageComponent {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:     discordgo.ChannelSelectMenu,
				CustomID:     customID,
				Placeholder:  placeholder,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		}}
	}
	return []discordgo.MessageComponent{
		channelRow(customIDSetupResults, "Channel to post results in"),
		channelRow(customIDSetupChasers, "Channel for chasers"),
		channelRow(customIDSetupTrainers, "Channel for trainers"),
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Set Targets",
				Style:    discordgo.PrimaryButton,
				CustomID: customIDSetupTargets,
			},
		}},
	}
}

// handleInteraction dispatches component clicks and modal submits from the
// setup and switcher views.
func (b *Bot) handleInteraction(i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i)
	case discordgo.InteractionModalSubmit:
		b.handleModalSubmit(i)
	}
}

// interactionUserID returns the acting user's ID for a guild interaction.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// handleComponent processes select-menu and button clicks on a view message.
func (b *Bot) handleComponent(i *discordgo.InteractionCreate) {
	if i.Message == nil {
		return
	}
	data := i.MessageComponentData()

	switch data.CustomID {
	case customIDSetupResults, customIDSetupChasers, customIDSetupTrainers, customIDSetupTargets:
		b.mu.Lock()
		flow, ok := b.setups[i.Message.ID]
		b.mu.Unlock()
		if !ok {
			return
		}
		if interactionUserID(i) != flow.userID {
			b.respondEphemeral(i, "Only the author of the command can perform this action.")
			return
		}
		b.handleSetupComponent(i, flow, data)

	case customIDSwitchersOpen:
		b.mu.Lock()
		flow, ok := b.switchers[i.Message.ID]
		b.mu.Unlock()
		if !ok {
			return
		}
		if interactionUserID(i) != flow.userID {
			b.respondEphemeral(i, "Only the author of the command can perform this action.")
			return
		}
		b.respondModal(i, modalIDSwitchersPrefix+flow.messageID, "Link Switchers",
			"switchers", "Switchers")
	}
}

// handleSetupComponent records a channel selection or opens the targets modal.
func (b *Bot) handleSetupComponent(i *discordgo.InteractionCreate, flow *setupFlow, data discordgo.MessageComponentInteractionData) {
	if data.CustomID == customIDSetupTargets {
		b.respondModal(i, modalIDSetupPrefix+flow.messageID, "Set Targets",
			"targets", "Targets")
		return
	}

	if len(data.Values) == 0 {
		return
	}
	b.mu.Lock()
	switch data.CustomID {
	case customIDSetupResults:
		flow.results = data.Values[0]
	case customIDSetupChasers:
		flow.chasers = data.Values[0]
	case customIDSetupTrainers:
		flow.trainers = data.Values[0]
	}
	b.mu.Unlock()

	if err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.Printf("bot: ack component: %v", err)
	}
}

// handleModalSubmit finalizes a setup or switcher flow from its modal.
func (b *Bot) handleModalSubmit(i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()

	switch {
	case strings.HasPrefix(data.CustomID, modalIDSetupPrefix):
		b.finishSetup(i, strings.TrimPrefix(data.CustomID, modalIDSetupPrefix), data)
	case strings.HasPrefix(data.CustomID, modalIDSwitchersPrefix):
		b.finishSwitchers(i, strings.TrimPrefix(data.CustomID, modalIDSwitchersPrefix), data)
	}
}

// finishSetup validates the collected channels, creates the session, and
// disables the view. An incomplete channel selection keeps the view alive so
// the author can fix it.
func (b *Bot) finishSetup(i *discordgo.InteractionCreate, messageID string, data discordgo.ModalSubmitInteractionData) {
	b.mu.Lock()
	flow, ok := b.setups[messageID]
	b.mu.Unlock()
	if !ok {
		return
	}
	if interactionUserID(i) != flow.userID {
		b.respondEphemeral(i, "Only the author of the command can perform this action.")
		return
	}

	targets := splitNormalized(modalInputValue(data))

	b.mu.Lock()
	results, chasers, trainers := flow.results, flow.chasers, flow.trainers
	b.mu.Unlock()

	if results == "" || chasers == "" || trainers == "" {
		b.respondMessage(i, "Please select a valid channel for all three dropdowns!")
		return
	}

	sess := game.NewSession(results, chasers, trainers)
	sess.SetTargets(targets)
	b.registry.Create(flow.guildID, sess)

	flow.timer.Stop()
	b.mu.Lock()
	delete(b.setups, messageID)
	b.mu.Unlock()
	b.disableView(flow.channelID, messageID)

	b.respondMessage(i, fmt.Sprintf(
		"New session set up: \n- **Results channel:** <#%s>\n- **Chasers channel:** <#%s>\n- **Trainers channel:** <#%s>\n- **Targets loaded:** %d",
		results, chasers, trainers, len(targets)))
}

// finishSwitchers bulk-links the submitted nations to the flow's author.
func (b *Bot) finishSwitchers(i *discordgo.InteractionCreate, messageID string, data discordgo.ModalSubmitInteractionData) {
	b.mu.Lock()
	flow, ok := b.switchers[messageID]
	b.mu.Unlock()
	if !ok {
		return
	}
	if interactionUserID(i) != flow.userID {
		b.respondEphemeral(i, "Only the author of the command can perform this action.")
		return
	}

	sess, ok := b.registry.Get(flow.guildID)
	if !ok {
		b.respondMessage(i, "No session in progress!")
		return
	}

	switchers := splitNormalized(modalInputValue(data))
	isTrainer := flow.channelID == sess.TrainersChannel
	count := sess.LinkAll(switchers, flow.userID, isTrainer)

	flow.timer.Stop()
	b.mu.Lock()
	delete(b.switchers, messageID)
	b.mu.Unlock()
	b.disableView(flow.channelID, messageID)

	b.respondMessage(i, fmt.Sprintf("Linked **%d nations** to %s.", count, flow.userName))
}

// expireSetup disables a setup view after the idle timeout.
func (b *Bot) expireSetup(messageID string) {
	b.mu.Lock()
	flow, ok := b.setups[messageID]
	delete(b.setups, messageID)
	b.mu.Unlock()
	if ok {
		b.disableView(flow.channelID, messageID)
	}
}

// expireSwitchers disables a switcher view after the idle timeout.
func (b *Bot) expireSwitchers(messageID string) {
	b.mu.Lock()
	flow, ok := b.switchers[messageID]
	delete(b.switchers, messageID)
	b.mu.Unlock()
	if ok {
		b.disableView(flow.channelID, messageID)
	}
}

// disableView strips the interactive components from a view message.
func (b *Bot) disableView(channelID, messageID string) {
	empty := []discordgo.MessageComponent{}
	if _, err := b.sess.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &empty,
	}); err != nil {
		log.Printf("bot: disable view: %v", err)
	}
}

// respondModal opens a single-paragraph-input modal.
func (b *Bot) respondModal(i *discordgo.InteractionCreate, customID, title, inputID, label string) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID: inputID,
						Label:    label,
						Style:    discordgo.TextInputParagraph,
						Required: true,
					},
				}},
			},
		},
	})
	if err != nil {
		log.Printf("bot: open modal: %v", err)
	}
}

// respondMessage answers an interaction with a channel message.
func (b *Bot) respondMessage(i *discordgo.InteractionCreate, content string) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Printf("bot: respond: %v", err)
	}
}

// respondEphemeral answers an interaction with an ephemeral message.
func (b *Bot) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("bot: respond ephemeral: %v", err)
	}
}

// modalInputValue extracts the value of the first text input in a modal.
func modalInputValue(data discordgo.ModalSubmitInteractionData) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok {
				return ti.Value
			}
		}
	}
	return ""
}

// splitNormalized splits multiline input into normalized nation names,
// skipping blank lines.
func splitNormalized(input string) []string {
	var out []string
	for _, line := range strings.Split(input, "\n") {
		n := game.NormalizeNation(line)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
