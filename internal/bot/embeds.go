package bot

import (
	"fmt"
	"strings"

	"github.com/Merethin/Windstorm/internal/game"
	"github.com/bwmarrin/discordgo"
)

// regionEmbed announces a picked target with a template-overall=none jump
// link. The link text is a wall of percent signs so the clickable area spans
// the whole embed line, and the attribution query names the operator nation.
func regionEmbed(region, nation string) *discordgo.MessageEmbed {
	url := fmt.Sprintf(
		"https://www.nationstates.net/region=%s/template-overall=none?generated_by=Windstorm__by_Merethin__usedBy_%s",
		region, nation)
	return &discordgo.MessageEmbed{
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Region", Value: region, Inline: false},
			{Name: "Link", Value: fmt.Sprintf("[%s](%s)", strings.Repeat("%", 400), url), Inline: false},
		},
	}
}

// reportEmbed renders a scored round: the first trainer move and the chaser
// rankings in bus arrival order.
func reportEmbed(result *game.Result) *discordgo.MessageEmbed {
	var rankings strings.Builder
	for idx, e := range result.Entries {
		fmt.Fprintf(&rankings, "%d: <@%s>, %ds\n", idx+1, e.UserID, e.Elapsed)
	}
	return &discordgo.MessageEmbed{
		Title: "Results: " + result.Region,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "First Trainer Move", Value: "<@" + result.FirstMoverID + ">", Inline: false},
			{Name: "Rankings", Value: strings.TrimSuffix(rankings.String(), "\n"), Inline: false},
		},
	}
}

// scoreEmbed renders the cumulative standings, lowest total first.
func scoreEmbed(entries []game.ScoreEntry) *discordgo.MessageEmbed {
	var lines strings.Builder
	for idx, e := range entries {
		fmt.Fprintf(&lines, "%d: <@%s>, %d total seconds\n", idx+1, e.UserID, e.Total)
	}
	return &discordgo.MessageEmbed{
		Title:       "Final Scores",
		Description: strings.TrimSuffix(lines.String(), "\n"),
	}
}
