package bot

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Merethin/Windstorm/internal/game"
	"github.com/bwmarrin/discordgo"
)

var (
	// nationRe matches a bare NationStates nation link, capturing the
	// canonical nation name.
	nationRe = regexp.MustCompile(`^https://www\.nationstates\.net/nation=([a-z0-9_-]+)`)
	// setupRoleRe matches "!setup_role <@&id>" with the mention brackets optional.
	setupRoleRe = regexp.MustCompile(`^!setup_role (?:<@&)?([0-9]+)>?`)
)

// handleMessage routes one inbound guild message. Administrative commands are
// handled first; everything else requires an active session and is scoped to
// the session's game channels.
func (b *Bot) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	b.mu.Lock()
	self := b.botUserID
	b.mu.Unlock()
	if m.Author.ID == self {
		return
	}

	content := strings.TrimSpace(m.Content)

	switch {
	case strings.HasPrefix(content, "!setup_role"):
		b.cmdSetupRole(m, content)
		return
	case content == "!setup_session":
		b.cmdSetupSession(m)
		return
	case content == "!end_session":
		b.cmdEndSession(m)
		return
	}

	sess, ok := b.registry.Get(m.GuildID)
	if !ok {
		return
	}
	if m.ChannelID != sess.ChasersChannel && m.ChannelID != sess.TrainersChannel {
		return
	}

	switch {
	case nationRe.MatchString(content):
		b.cmdLinkNation(m, sess, content)
		return
	case content == "!unlink":
		b.cmdUnlink(m, sess)
		return
	case content == "!link_switchers":
		b.cmdLinkSwitchers(m, sess)
		return
	}

	if m.ChannelID != sess.TrainersChannel {
		return
	}

	switch content {
	case "t":
		b.cmdPickTarget(m, sess)
	case "!report":
		b.cmdReport(m, sess)
	case "!scores":
		b.cmdScores(m, sess)
	}
}

// cmdSetupRole updates the guild's setup role. Guild owner only.
func (b *Bot) cmdSetupRole(m *discordgo.MessageCreate, content string) {
	guild, err := b.sess.Guild(m.GuildID)
	if err != nil || guild.OwnerID != m.Author.ID {
		b.reply(m, "You are not allowed to do that!")
		return
	}
	match := setupRoleRe.FindStringSubmatch(content)
	if match == nil {
		b.send(m.ChannelID, "Usage: `!setup_role <@&role>`")
		return
	}
	if err := b.roles.Set(m.GuildID, match[1]); err != nil {
		b.send(m.ChannelID, "Failed to update setup role.")
		return
	}
	b.send(m.ChannelID, "Setup role updated.")
}

// cmdEndSession destroys the guild's session.
func (b *Bot) cmdEndSession(m *discordgo.MessageCreate) {
	if !b.isGameAdmin(m) {
		b.reply(m, "You are not allowed to do that!")
		return
	}
	if b.registry.Destroy(m.GuildID) {
		b.send(m.ChannelID, "Session ended.")
	} else {
		b.send(m.ChannelID, "No session in progress!")
	}
}

// cmdLinkNation links the nation from a pasted profile URL to the author.
// The trainer flag is derived from which game channel the link was posted in.
func (b *Bot) cmdLinkNation(m *discordgo.MessageCreate, sess *game.Session, content string) {
	match := nationRe.FindStringSubmatch(content)
	if match == nil {
		return
	}
	isTrainer := m.ChannelID == sess.TrainersChannel
	nation := sess.Link(match[1], m.Author.ID, isTrainer)
	b.send(m.ChannelID, "Nation "+nation+" linked to "+displayName(m))
}

// cmdUnlink removes the author's first linked nation.
func (b *Bot) cmdUnlink(m *discordgo.MessageCreate, sess *game.Session) {
	nation, ok := sess.Unlink(m.Author.ID)
	if !ok {
		b.send(m.ChannelID, displayName(m)+" has no nations linked.")
		return
	}
	b.send(m.ChannelID, "Nation "+nation+" unlinked from "+displayName(m))
}

// cmdPickTarget draws a random target and announces it with a jump link.
func (b *Bot) cmdPickTarget(m *discordgo.MessageCreate, sess *game.Session) {
	region, err := sess.PickTarget()
	if err != nil {
		b.send(m.ChannelID, "No targets configured!")
		return
	}
	b.sendEmbed(m.ChannelID, regionEmbed(region, b.nation))
}

// cmdReport scores the current round and posts the results. On error the
// round state is untouched: without a first trainer move there is no
// time-zero, and without chaser moves there is nothing to rank, so the round
// stays open in both cases.
func (b *Bot) cmdReport(m *discordgo.MessageCreate, sess *game.Session) {
	result, err := sess.Report()
	switch {
	case errors.Is(err, game.ErrNoTrainerMove):
		b.send(m.ChannelID, "Trainers have not moved yet!")
		return
	case errors.Is(err, game.ErrNoChaserMoves):
		b.send(m.ChannelID, "No chasers have moved!")
		return
	case err != nil:
		b.send(m.ChannelID, "Failed to build report.")
		return
	}
	b.sendEmbed(sess.ResultsChannel, reportEmbed(result))
}

// cmdScores posts the cumulative standings.
func (b *Bot) cmdScores(m *discordgo.MessageCreate, sess *game.Session) {
	entries, err := sess.Tally()
	if err != nil {
		b.send(m.ChannelID, "No scores recorded yet!")
		return
	}
	b.sendEmbed(sess.ResultsChannel, scoreEmbed(entries))
}
