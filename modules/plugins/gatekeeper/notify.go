package gatekeeper

import (
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/bwmarrin/discordgo"
)

// logChannelNotifier posts transition embeds to the configured logs
// channel. Delivery is best effort, a down logs channel never blocks
// the engine.
type logChannelNotifier struct{}

func (n *logChannelNotifier) MemberJoined(userID string) {
	n.send(&discordgo.MessageEmbed{
		Title:       "👋 New Member Joined",
		Description: "<@" + userID + "> has joined the server and received the unverified role.",
		Color:       0x0099FF,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: "`" + userID + "`", Inline: true},
		},
	})
}

func (n *logChannelNotifier) TriggerClicked(userID string, hadUnverifiedRole bool) {
	hadRole := "❌ No"
	if hadUnverifiedRole {
		hadRole = "✅ Yes"
	}
	n.send(&discordgo.MessageEmbed{
		Title:       "🔒 Onboarding Trigger Clicked",
		Description: "<@" + userID + "> started the onboarding flow.",
		Color:       0xFFA500,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: "`" + userID + "`", Inline: true},
			{Name: "Had unverified role", Value: hadRole, Inline: true},
		},
	})
}

func (n *logChannelNotifier) MemberRoleAssigned(userID string) {
	n.send(&discordgo.MessageEmbed{
		Title:       "✅ Member Role Assigned",
		Description: "<@" + userID + "> now has full access to the community.",
		Color:       0x00FF00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: "`" + userID + "`", Inline: true},
		},
	})
}

func (n *logChannelNotifier) UnverifiedRoleRemoved(userID string) {
	n.send(&discordgo.MessageEmbed{
		Title:       "🔓 Unverified Role Removed",
		Description: "The unverified role of <@" + userID + "> has been removed.",
		Color:       0x00FF00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: "`" + userID + "`", Inline: true},
		},
	})
}

func (n *logChannelNotifier) send(embed *discordgo.MessageEmbed) {
	channelID := helpers.GetConfigString("gatekeeper.logs_channel_id")
	if channelID == "" {
		return
	}

	embed.Timestamp = time.Now().UTC().Format(time.RFC3339)

	_, err := helpers.SendEmbed(channelID, embed)
	helpers.RelaxLog(err)
}
