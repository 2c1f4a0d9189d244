package helpers

import (
	"regexp"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/bwmarrin/discordgo"
)

var (
	userMentionRegex    = regexp.MustCompile(`<@!?(\d+)>`)
	channelMentionRegex = regexp.MustCompile(`<#(\d+)>`)
	roleMentionRegex    = regexp.MustCompile(`<@&(\d+)>`)
)

// IsBotOwner checks if $id is in the configured owner set. Owners are
// exempt from guild-scoping checks.
func IsBotOwner(id string) bool {
	for _, ownerID := range GetConfigStringSlice("gatekeeper.owner_ids") {
		if ownerID == id {
			return true
		}
	}

	return false
}

// IsAuthorized checks if $msg comes from the configured guild or from a
// bot owner. Commands from anywhere else get ignored.
func IsAuthorized(msg *discordgo.Message) bool {
	if IsBotOwner(msg.Author.ID) {
		return true
	}

	guildID := GetConfigString("gatekeeper.guild_id")
	if guildID == "" {
		return false
	}

	channel, err := cache.GetSession().State.Channel(msg.ChannelID)
	if err != nil {
		channel, err = cache.GetSession().Channel(msg.ChannelID)
		if err != nil {
			return false
		}
	}

	return channel.GuildID == guildID
}

// IsAdmin checks if $msg author is the guild owner, a bot owner, or
// holds a role with the administrator permission
func IsAdmin(msg *discordgo.Message) bool {
	if IsBotOwner(msg.Author.ID) {
		return true
	}

	channel, err := cache.GetSession().State.Channel(msg.ChannelID)
	if err != nil {
		return false
	}

	guild, err := cache.GetSession().State.Guild(channel.GuildID)
	if err != nil {
		return false
	}

	if msg.Author.ID == guild.OwnerID {
		return true
	}

	guildMember, err := cache.GetSession().GuildMember(guild.ID, msg.Author.ID)
	if err != nil {
		return false
	}
	for _, role := range guild.Roles {
		for _, userRole := range guildMember.Roles {
			if userRole == role.ID && role.Permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator {
				return true
			}
		}
	}

	return false
}

// RequireAdmin only calls $cb if the author is an admin
func RequireAdmin(msg *discordgo.Message, cb Callback) {
	if !IsAdmin(msg) {
		SendMessage(msg.ChannelID, "You need Administrator permissions to use this command.")
		return
	}

	cb()
}

// GetUserFromMention returns the user id in a mention like <@158007697097490433>
func GetUserFromMention(mention string) (userID string) {
	result := userMentionRegex.FindStringSubmatch(mention)
	if len(result) == 2 {
		return result[1]
	}

	return ""
}

// GetChannelFromMention returns the channel id in a mention like <#267186654312136704>
func GetChannelFromMention(mention string) (channelID string) {
	result := channelMentionRegex.FindStringSubmatch(mention)
	if len(result) == 2 {
		return result[1]
	}

	return ""
}

// GetRoleFromMention returns the role id in a mention like <@&339103000129896448>
func GetRoleFromMention(mention string) (roleID string) {
	result := roleMentionRegex.FindStringSubmatch(mention)
	if len(result) == 2 {
		return result[1]
	}

	return ""
}

// MemberHasRole checks if $member carries $roleID
func MemberHasRole(member *discordgo.Member, roleID string) bool {
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}

	return false
}

func SendMessage(channelID string, content string) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSend(channelID, content)
}

func SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSendEmbed(channelID, embed)
}

func SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSendComplex(channelID, data)
}
