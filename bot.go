package main

import (
	"fmt"
	"strings"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/modules"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/ratelimits"
	"github.com/bwmarrin/discordgo"
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()

	log.WithField("module", "bot").Info("Connected to discord!")

	// Cache the session
	cache.SetSession(session)

	// Run the trigger rate limiter
	ratelimits.Container.Init()

	// Load and init all modules
	modules.Init(session)

	// request guild members from the gateway so the state is complete
	go func() {
		defer helpers.Recover()

		for _, guild := range session.State.Guilds {
			err := session.RequestGuildMembers(guild.ID, "", 0)
			if err != nil {
				log.WithField("module", "bot").Error(fmt.Sprintf("Failed to request members for guild #%s: %s",
					guild.ID, err.Error()))
			}
		}
	}()
}

func BotOnGuildMemberAdd(session *discordgo.Session, member *discordgo.GuildMemberAdd) {
	modules.CallExtendedPluginOnGuildMemberAdd(
		member.Member,
	)
}

func BotOnGuildMemberRemove(session *discordgo.Session, member *discordgo.GuildMemberRemove) {
	modules.CallExtendedPluginOnGuildMemberRemove(
		member.Member,
	)
}

// BotOnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
// or spawn costly work inside of coroutines.
func BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	// Ignore other bots and @everyone/@here
	if message.Author == nil || message.Author.Bot || message.MentionEveryone {
		return
	}

	// Only continue if a prefix is set
	prefix := helpers.GetConfigString("discord.prefix")
	if prefix == "" {
		return
	}

	// Check if the message is prefixed for us
	// If not exit
	if !strings.HasPrefix(message.Content, prefix) {
		return
	}

	// Split the message into parts
	parts := strings.Fields(message.Content)

	// Save a sanitized version of the command (no prefix)
	cmd := strings.Replace(parts[0], prefix, "", 1)
	if cmd == "" {
		return
	}

	// Separate arguments from the command
	content := strings.TrimSpace(strings.Replace(message.Content, prefix+cmd, "", 1))

	// Log commands
	cache.GetLogger().WithField("module", "bot").Debug(fmt.Sprintf("%s (#%s): %s",
		message.Author.Username, message.Author.ID, message.Content))

	// Check if a module matches said command
	modules.CallBotPlugin(cmd, content, message.Message)
}

// BotOnReactionAdd gets called after a reaction is added
// This will be called after *every* reaction added on *every* server so it
// should die as soon as possible or spawn costly work inside of coroutines.
func BotOnReactionAdd(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	modules.CallExtendedPluginOnReactionAdd(reaction)
}
