package helpers

import (
	"fmt"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/metrics"
	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
)

// Escalate is the critical error sink. It logs the error, captures it to
// sentry, posts an embed to the logs channel pinging the owners, and DMs
// every owner. Delivery failures are dead ends, they get logged locally
// and never propagate back into the caller.
func Escalate(kind string, message string, fields map[string]string) {
	defer Recover()

	log := cache.GetLogger().WithField("module", "escalate")
	log.Errorf("CRITICAL ERROR: %s: %s", kind, message)
	metrics.CriticalErrors.Add(1)

	ravenFields := map[string]string{"kind": kind}
	for key, value := range fields {
		ravenFields[key] = value
	}
	raven.CaptureError(fmt.Errorf("%s: %s", kind, message), ravenFields)

	embed := &discordgo.MessageEmbed{
		Title:       "🚨 CRITICAL ERROR: " + kind,
		Description: message,
		Color:       0xFF0000,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Gatekeeper critical error report"},
	}
	for key, value := range fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: key, Value: value, Inline: true,
		})
	}

	ownerIDs := GetConfigStringSlice("gatekeeper.owner_ids")

	logsChannelID := GetConfigString("gatekeeper.logs_channel_id")
	if logsChannelID != "" {
		mentions := ""
		for _, ownerID := range ownerIDs {
			mentions += "<@" + ownerID + "> "
		}

		_, err := cache.GetSession().ChannelMessageSendComplex(logsChannelID, &discordgo.MessageSend{
			Content: "🚨 **CRITICAL ERROR DETECTED** " + mentions,
			Embed:   embed,
		})
		if err != nil {
			log.Error("failed to deliver critical error to logs channel: " + err.Error())
		}
	}

	for _, ownerID := range ownerIDs {
		dmChannel, err := cache.GetSession().UserChannelCreate(ownerID)
		if err != nil {
			log.Error("failed to open DM channel to owner " + ownerID + ": " + err.Error())
			continue
		}

		_, err = cache.GetSession().ChannelMessageSendEmbed(dmChannel.ID, embed)
		if err != nil {
			log.Error("failed to DM critical error to owner " + ownerID + ": " + err.Error())
		}
	}
}
