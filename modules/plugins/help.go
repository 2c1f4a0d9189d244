package plugins

import (
	"sort"
	"strings"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/bwmarrin/discordgo"
)

type Help struct{}

func (h *Help) Commands() []string {
	return []string{
		"help",
		"commands",
	}
}

func (h *Help) Init(session *discordgo.Session) {
}

func (h *Help) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	prefix := helpers.GetConfigString("discord.prefix")

	commands := append([]string{}, cache.GetPluginList()...)
	commands = append(commands, cache.GetPluginExtendedList()...)
	sort.Strings(commands)

	embed := &discordgo.MessageEmbed{
		Title: "ℹ Commands",
		Description: "Join the community by reacting to the welcome message or using `" + prefix + "book`.\n" +
			"Administrative commands require the administrator permission.",
		Color: 0x0099FF,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Available commands",
				Value: "`" + prefix + strings.Join(commands, "`, `"+prefix) + "`",
			},
			{
				Name: "Channel schedules",
				Value: "`" + prefix + "daily-access` lists schedules, " +
					"`" + prefix + "daily-access set|remove|notifications` manages them.",
			},
		},
	}

	_, err := helpers.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxLog(err)
}
