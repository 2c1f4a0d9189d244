package gatekeeper

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/ratelimits"
	"github.com/bwmarrin/discordgo"
	"github.com/davecgh/go-spew/spew"
	humanize "github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Handler is the gatekeeper plugin: it owns the onboarding state
// machine, the welcome message, and the admin commands around both.
type Handler struct {
	records    *RecordStore
	reconciler *Reconciler
	stop       chan struct{}
}

func (h *Handler) Commands() []string {
	return []string{
		"book",
		"setup",
		"refresh",
		"check-user",
		"fix-user-roles",
		"add-unverified-role",
		"remove-member-role",
	}
}

func (h *Handler) Init(session *discordgo.Session) {
	h.records = &RecordStore{}
	h.reconciler = NewReconciler(ReconcilerConfig{
		GuildID:          helpers.GetConfigString("gatekeeper.guild_id"),
		MemberRoleID:     helpers.GetConfigString("gatekeeper.member_role_id"),
		UnverifiedRoleID: helpers.GetConfigString("gatekeeper.unverified_role_id"),
		AssignmentDelay:  time.Duration(helpers.GetConfigInt("gatekeeper.role_assignment_delay", 300)) * time.Second,
	}, &discordDirectory{}, &logChannelNotifier{}, h.records, ratelimits.Container)
	h.stop = make(chan struct{})

	go func() {
		defer helpers.Recover()

		time.Sleep(3 * time.Second)

		messageID, err := EnsureWelcomeMessage()
		if err != nil {
			helpers.RelaxLog(err)
		} else {
			h.logger().Info("welcome message is in place: " + messageID)
		}

		// authoritative drift correction before the periodic loop starts
		corrected, removed, err := h.reconciler.SyncWithExternal(time.Now())
		if err != nil {
			helpers.RelaxLog(err)
		} else {
			h.logger().Infof("startup sync done, corrected %d and removed %d records", corrected, removed)
		}

		go h.reconcileLoop()
	}()
}

func (h *Handler) Uninit(session *discordgo.Session) {
	if h.stop != nil {
		close(h.stop)
	}
}

func (h *Handler) reconcileLoop() {
	defer helpers.Recover()
	defer func() {
		go func() {
			defer helpers.Recover()
			select {
			case <-h.stop:
				return
			default:
			}
			h.logger().Error("The reconcileLoop died. Please investigate! Will be restarted in 60 seconds")
			time.Sleep(60 * time.Second)
			h.reconcileLoop()
		}()
	}()

	interval := time.Duration(helpers.GetConfigInt("gatekeeper.check_interval", 30)) * time.Second
	for {
		select {
		case <-h.stop:
			return
		case <-time.After(interval):
			h.reconciler.ReconcileAll(time.Now())
		}
	}
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	defer helpers.Recover()

	if !helpers.IsAuthorized(msg) {
		return
	}

	switch command {
	case "book":
		h.actionBook(msg)
	case "setup", "refresh":
		helpers.RequireAdmin(msg, func() {
			h.actionRefresh(msg)
		})
	case "check-user":
		helpers.RequireAdmin(msg, func() {
			h.actionCheckUser(content, msg)
		})
	case "fix-user-roles":
		helpers.RequireAdmin(msg, func() {
			h.actionFixUserRoles(msg)
		})
	case "add-unverified-role":
		helpers.RequireAdmin(msg, func() {
			h.actionAddUnverifiedRole(content, msg)
		})
	case "remove-member-role":
		helpers.RequireAdmin(msg, func() {
			h.actionRemoveMemberRole(content, msg)
		})
	}
}

// OnGuildMemberAdd feeds join events into the engine
func (h *Handler) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
	defer helpers.Recover()

	if member.GuildID != helpers.GetConfigString("gatekeeper.guild_id") {
		return
	}

	_, err := h.reconciler.OnJoin(member.User.ID, time.Now())
	if err != nil {
		h.logger().Errorf("failed to handle join of user %s: %s", member.User.ID, err.Error())
		helpers.Escalate("Member Join Error",
			fmt.Sprintf("Error handling member join for user %s: %s", member.User.ID, err.Error()), nil)
	}
}

// OnGuildMemberRemove drops the record right away, the loops would
// catch it on the next pass anyway
func (h *Handler) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
	defer helpers.Recover()

	if member.GuildID != helpers.GetConfigString("gatekeeper.guild_id") {
		return
	}

	helpers.RelaxLog(h.records.Remove(member.User.ID))
	h.logger().Infof("user %s left the guild, removed record", member.User.ID)
}

// OnReactionAdd turns reactions on the welcome message into onboarding
// triggers
func (h *Handler) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	defer helpers.Recover()

	if reaction.UserID == session.State.User.ID {
		return
	}
	if reaction.Emoji.Name != WelcomeReactionEmoji {
		return
	}
	if reaction.MessageID == "" || reaction.MessageID != WelcomeMessageID() {
		return
	}

	result, err := h.reconciler.OnTrigger(reaction.UserID, time.Now())
	if err != nil {
		h.logger().Errorf("failed to handle trigger for user %s: %s", reaction.UserID, err.Error())
		helpers.Escalate("Onboarding Trigger Error",
			fmt.Sprintf("Error handling onboarding trigger for user %s: %s", reaction.UserID, err.Error()), nil)
		h.dmEmbed(reaction.UserID, apologyEmbed())
		return
	}

	h.dmEmbed(reaction.UserID, triggerResultEmbed(result))
}

// [p]book triggers the onboarding flow by command
func (h *Handler) actionBook(msg *discordgo.Message) {
	result, err := h.reconciler.OnTrigger(msg.Author.ID, time.Now())
	if err != nil {
		h.logger().Errorf("failed to handle trigger for user %s: %s", msg.Author.ID, err.Error())
		helpers.Escalate("Onboarding Trigger Error",
			fmt.Sprintf("Error handling onboarding trigger for user %s: %s", msg.Author.ID, err.Error()), nil)
		helpers.SendEmbed(msg.ChannelID, apologyEmbed())
		return
	}

	_, err = helpers.SendEmbed(msg.ChannelID, triggerResultEmbed(result))
	helpers.RelaxLog(err)
}

// [p]setup / [p]refresh repost or edit the welcome message
func (h *Handler) actionRefresh(msg *discordgo.Message) {
	messageID, err := EnsureWelcomeMessage()
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, "✅ Welcome message is in place: `"+messageID+"`")
	helpers.RelaxLog(err)
}

// [p]check-user <@user> dumps the stored record and the live role state
func (h *Handler) actionCheckUser(content string, msg *discordgo.Message) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments, mention the user to check.")
		return
	}

	userID := helpers.GetUserFromMention(args[0])
	if userID == "" {
		userID = args[0]
	}

	embed := &discordgo.MessageEmbed{
		Title: "🔍 User Check",
		Color: 0x0099FF,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: "<@" + userID + "> (`" + userID + "`)", Inline: false},
		},
	}

	record, found := h.records.Get(userID)
	if found {
		joined := "unknown"
		if record.JoinedAt > 0 {
			joined = humanize.Time(time.Unix(int64(record.JoinedAt), 0))
		}
		clicked := "never"
		if record.ButtonClickedAt > 0 {
			clicked = humanize.Time(time.Unix(int64(record.ButtonClickedAt), 0))
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Joined", Value: joined, Inline: true},
			&discordgo.MessageEmbedField{Name: "Trigger clicked", Value: clicked, Inline: true},
			&discordgo.MessageEmbedField{Name: "Record", Value: "```\n" + spew.Sdump(record) + "\n```", Inline: false},
		)
	} else {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Record", Value: "no record stored", Inline: false})
	}

	roles, present, err := h.reconciler.directory.MemberRoles(
		helpers.GetConfigString("gatekeeper.guild_id"), userID)
	if err != nil {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Live roles", Value: "lookup failed: " + err.Error(), Inline: false})
	} else if !present {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Live roles", Value: "not in the guild", Inline: false})
	} else {
		memberText := "❌ no member role"
		if containsRole(roles, helpers.GetConfigString("gatekeeper.member_role_id")) {
			memberText = "✅ member role"
		}
		unverifiedText := "❌ no unverified role"
		if containsRole(roles, helpers.GetConfigString("gatekeeper.unverified_role_id")) {
			unverifiedText = "✅ unverified role"
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Live roles", Value: memberText + "\n" + unverifiedText, Inline: false})
	}

	cooldownText := "✅ none"
	if stamp := ratelimits.Container.Get(userID); stamp > 0 {
		cooldown := helpers.GetConfigInt("gatekeeper.trigger_cooldown", 60)
		elapsed := float64(time.Now().Unix()) - stamp
		if elapsed < float64(cooldown) {
			cooldownText = "⏳ " + helpers.SecondsToDuration(int(float64(cooldown)-elapsed)) + " remaining"
		} else {
			cooldownText = "✅ expired"
		}
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Trigger cooldown", Value: cooldownText, Inline: false})

	_, err = helpers.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxLog(err)
}

// [p]fix-user-roles runs the authoritative drift sync right now
func (h *Handler) actionFixUserRoles(msg *discordgo.Message) {
	corrected, removed, err := h.reconciler.SyncWithExternal(time.Now())
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf(
		"✅ Sync finished, corrected %d records and removed %d records of users who left.", corrected, removed))
	helpers.RelaxLog(err)
}

// [p]add-unverified-role <@user>
func (h *Handler) actionAddUnverifiedRole(content string, msg *discordgo.Message) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments, mention the user.")
		return
	}

	userID := helpers.GetUserFromMention(args[0])
	if userID == "" {
		userID = args[0]
	}

	guildID := helpers.GetConfigString("gatekeeper.guild_id")
	unverifiedRoleID := helpers.GetConfigString("gatekeeper.unverified_role_id")
	if guildID == "" || unverifiedRoleID == "" {
		helpers.SendMessage(msg.ChannelID, "Guild or unverified role is not configured.")
		return
	}

	helpers.Relax(h.reconciler.directory.AddRole(guildID, userID, unverifiedRoleID))
	helpers.RelaxLog(h.records.Upsert(userID, func(record models.UserAccessRecord) models.UserAccessRecord {
		record.UnverifiedRoleAssigned = true
		return record
	}))

	_, err := helpers.SendMessage(msg.ChannelID, "✅ Assigned the unverified role to <@"+userID+">.")
	helpers.RelaxLog(err)
}

// [p]remove-member-role <@user>
func (h *Handler) actionRemoveMemberRole(content string, msg *discordgo.Message) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments, mention the user.")
		return
	}

	userID := helpers.GetUserFromMention(args[0])
	if userID == "" {
		userID = args[0]
	}

	guildID := helpers.GetConfigString("gatekeeper.guild_id")
	memberRoleID := helpers.GetConfigString("gatekeeper.member_role_id")
	if guildID == "" || memberRoleID == "" {
		helpers.SendMessage(msg.ChannelID, "Guild or member role is not configured.")
		return
	}

	helpers.Relax(h.reconciler.directory.RemoveRole(guildID, userID, memberRoleID))
	helpers.RelaxLog(h.records.Upsert(userID, func(record models.UserAccessRecord) models.UserAccessRecord {
		record.HasAccess = false
		record.RoleAssigned = false
		return record
	}))

	_, err := helpers.SendMessage(msg.ChannelID, "✅ Removed the member role from <@"+userID+">.")
	helpers.RelaxLog(err)
}

func (h *Handler) dmEmbed(userID string, embed *discordgo.MessageEmbed) {
	dmChannel, err := cache.GetSession().UserChannelCreate(userID)
	if err != nil {
		helpers.RelaxLog(err)
		return
	}

	_, err = cache.GetSession().ChannelMessageSendEmbed(dmChannel.ID, embed)
	helpers.RelaxLog(err)
}

func triggerResultEmbed(result TriggerResult) *discordgo.MessageEmbed {
	switch result.Outcome {
	case TriggerAlreadyMember:
		return &discordgo.MessageEmbed{
			Title:       "✅ Already Have Access!",
			Description: "You already have access to the community. Welcome back!",
			Color:       0x00FF00,
		}
	case TriggerOnCooldown:
		return &discordgo.MessageEmbed{
			Title: "⏳ Not So Fast",
			Description: "Please wait " +
				helpers.HumanizeDuration(time.Duration(result.RemainingSeconds)*time.Second) +
				" before trying again.",
			Color: 0xFFA500,
		}
	}

	bookingLink := helpers.GetConfigString("gatekeeper.booking_link")
	embed := &discordgo.MessageEmbed{
		Title: "📅 Book Your Onboarding Call Below",
		Description: "**Free Onboarding Call - For strategic planning**\n\n" +
			"After booking, return here and try again with the same email address.\n\n" +
			"*(If you already booked a call, you'll receive access to the community in 5 minutes.)*",
		Color: 0x00FF00,
	}
	if bookingLink != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🔗 Book Your Call",
			Value: "[Click here to book your free onboarding call](" + bookingLink + ")",
		})
	}
	return embed
}

func apologyEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Something Went Wrong",
		Description: "An error occurred. Please try again later.",
		Color:       0xFF0000,
	}
}

func (h *Handler) logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "gatekeeper")
}
