package modules

import "github.com/bwmarrin/discordgo"

type BaseModule interface{}

type Plugin interface {
	BaseModule

	Commands() []string

	Init(session *discordgo.Session)

	Action(
		command string,
		content string,
		msg *discordgo.Message,
		session *discordgo.Session,
	)
}

type ExtendedPlugin interface {
	BaseModule

	Commands() []string

	Init(session *discordgo.Session)

	Uninit(session *discordgo.Session)

	Action(
		command string,
		content string,
		msg *discordgo.Message,
		session *discordgo.Session,
	)

	OnGuildMemberAdd(
		member *discordgo.Member,
		session *discordgo.Session,
	)

	OnGuildMemberRemove(
		member *discordgo.Member,
		session *discordgo.Session,
	)

	OnReactionAdd(
		reaction *discordgo.MessageReactionAdd,
		session *discordgo.Session,
	)
}
