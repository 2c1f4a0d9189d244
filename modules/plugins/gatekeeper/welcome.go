package gatekeeper

import (
	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// WelcomeReactionEmoji is the reaction on the welcome message that
// triggers the onboarding flow
const WelcomeReactionEmoji = "📅"

// welcomePoster is the message surface the welcome upkeep needs
type welcomePoster interface {
	EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) error
	PostEmbed(channelID string, embed *discordgo.MessageEmbed) (messageID string, err error)
	React(channelID string, messageID string) error
}

type sessionPoster struct{}

func (p *sessionPoster) EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := cache.GetSession().ChannelMessageEditEmbed(channelID, messageID, embed)
	return err
}

func (p *sessionPoster) PostEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	message, err := cache.GetSession().ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return "", err
	}
	return message.ID, nil
}

func (p *sessionPoster) React(channelID string, messageID string) error {
	return cache.GetSession().MessageReactionAdd(channelID, messageID, WelcomeReactionEmoji)
}

func welcomeEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "👋 Welcome To The AJ Trading Academy!",
		Description: "To maximize your free community access & the education inside, book your free onboarding call below.\n\n" +
			"You'll speak to our senior trading success coach, who will show you how you can make the most out of your free membership and discover:\n\n" +
			"• What you're currently doing right in your trading\n" +
			"• What you're currently doing wrong in your trading\n" +
			"• How you can improve to hit your trading goals ASAP\n\n" +
			"React with " + WelcomeReactionEmoji + " below to book your free onboarding call.\n\n" +
			"(If you have already booked your onboarding call, react below and you'll automatically gain access to the community.)",
		Color:  0xFFFFFF,
		Footer: &discordgo.MessageEmbedFooter{Text: "Book Your Onboarding Call Today!"},
	}
}

// EnsureWelcomeMessage edits the welcome message the pointer document
// refers to, or posts a fresh one and persists the new pointer. Safe to
// call repeatedly, a second call edits instead of reposting.
func EnsureWelcomeMessage() (messageID string, err error) {
	return ensureWelcomeMessage(&sessionPoster{}, helpers.GetConfigString("gatekeeper.welcome_channel_id"))
}

func ensureWelcomeMessage(poster welcomePoster, channelID string) (messageID string, err error) {
	if channelID == "" {
		return "", errors.New("welcome channel id not configured")
	}

	embed := welcomeEmbed()

	var pointer models.WelcomeMessagePointer
	if helpers.ReadDocument(models.WelcomeMessageStore, &pointer) &&
		pointer.ChannelID == channelID && pointer.MessageID != "" {
		err = poster.EditEmbed(channelID, pointer.MessageID, embed)
		if err == nil {
			poster.React(channelID, pointer.MessageID)
			return pointer.MessageID, nil
		}
		// message got deleted, fall through and post a fresh one
	}

	messageID, err = poster.PostEmbed(channelID, embed)
	if err != nil {
		return "", errors.Wrap(err, "unable to post welcome message")
	}

	poster.React(channelID, messageID)

	err = helpers.WriteDocument(models.WelcomeMessageStore, models.WelcomeMessagePointer{
		MessageID: messageID,
		ChannelID: channelID,
	})
	return messageID, err
}

// WelcomeMessageID returns the stored welcome message id, "" if none
func WelcomeMessageID() string {
	var pointer models.WelcomeMessagePointer
	if !helpers.ReadDocument(models.WelcomeMessageStore, &pointer) {
		return ""
	}

	return pointer.MessageID
}
