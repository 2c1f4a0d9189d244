package dailyaccess

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/bwmarrin/discordgo"
)

// How often every schedule gets applied
const TickInterval = 60 * time.Second

// Handler is the daily access plugin: time-windowed send permissions
// per channel, administered by command.
type Handler struct {
	schedules *ScheduleStore
	scheduler *Scheduler
	stop      chan struct{}
}

func (h *Handler) Commands() []string {
	return []string{
		"daily-access",
	}
}

func (h *Handler) Init(session *discordgo.Session) {
	h.schedules = &ScheduleStore{}
	h.scheduler = NewScheduler(&discordPermissions{}, &channelNotifier{}, h.schedules)
	h.stop = make(chan struct{})

	go h.tickLoop()
}

func (h *Handler) Uninit(session *discordgo.Session) {
	if h.stop != nil {
		close(h.stop)
	}
}

func (h *Handler) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (h *Handler) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (h *Handler) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (h *Handler) tickLoop() {
	defer helpers.Recover()
	defer func() {
		go func() {
			defer helpers.Recover()
			select {
			case <-h.stop:
				return
			default:
			}
			logger().Error("The tickLoop died. Please investigate! Will be restarted in 60 seconds")
			time.Sleep(60 * time.Second)
			h.tickLoop()
		}()
	}()

	for {
		select {
		case <-h.stop:
			return
		case <-time.After(TickInterval):
			h.scheduler.ApplyAll(time.Now())
		}
	}
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	defer helpers.Recover()

	if !helpers.IsAuthorized(msg) {
		return
	}

	args := strings.Fields(content)
	subcommand := ""
	if len(args) > 0 {
		subcommand = args[0]
	}

	switch subcommand {
	case "set":
		helpers.RequireAdmin(msg, func() {
			h.actionSet(args[1:], msg)
		})
	case "remove":
		helpers.RequireAdmin(msg, func() {
			h.actionRemove(args[1:], msg)
		})
	case "notifications":
		helpers.RequireAdmin(msg, func() {
			h.actionNotifications(args[1:], msg)
		})
	default:
		helpers.RequireAdmin(msg, func() {
			h.actionList(msg)
		})
	}
}

// [p]daily-access set <#channel> <@role> <days> <start hour> <end hour> [timezone]
func (h *Handler) actionSet(args []string, msg *discordgo.Message) {
	if len(args) < 5 {
		helpers.SendMessage(msg.ChannelID,
			"Usage: `daily-access set <#channel> <@role> <days> <start hour> <end hour> [timezone]`\n"+
				"Example: `daily-access set #signals @Member monday,tuesday,friday 9 17 Europe/London`")
		return
	}

	channelID := helpers.GetChannelFromMention(args[0])
	if channelID == "" {
		helpers.SendMessage(msg.ChannelID, "Invalid channel, mention the channel to schedule.")
		return
	}

	roleID := helpers.GetRoleFromMention(args[1])
	if roleID == "" {
		roleID = args[1]
	}

	days := strings.Split(strings.ToLower(args[2]), ",")
	for _, day := range days {
		if !IsValidDay(day) {
			helpers.SendMessage(msg.ChannelID, "Invalid day `"+day+"`, use lowercase english weekday names.")
			return
		}
	}

	startHour, err := strconv.Atoi(args[3])
	if err != nil || startHour < 0 || startHour > 23 {
		helpers.SendMessage(msg.ChannelID, "Invalid start hour, use a number between 0 and 23.")
		return
	}
	endHour, err := strconv.Atoi(args[4])
	if err != nil || endHour < 0 || endHour > 23 {
		helpers.SendMessage(msg.ChannelID, "Invalid end hour, use a number between 0 and 23.")
		return
	}
	if startHour >= endHour {
		helpers.SendMessage(msg.ChannelID, "The start hour has to be before the end hour.")
		return
	}

	timezone := "UTC"
	timezoneNote := ""
	if len(args) >= 6 {
		timezone = args[5]
		if _, err := time.LoadLocation(timezone); err != nil {
			timezoneNote = "\n⚠ Unknown timezone `" + timezone + "`, it will be treated as UTC."
		}
	}

	err = h.schedules.Set(channelID, models.ChannelSchedule{
		RoleID:        roleID,
		Days:          days,
		StartHour:     startHour,
		EndHour:       endHour,
		Timezone:      timezone,
		Notifications: true,
		CreatedBy:     msg.Author.ID,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, fmt.Sprintf(
		"✅ Scheduled <#%s>: open %s from %s to %s (%s).%s",
		channelID, strings.Join(days, ", "), formatHour(startHour), formatHour(endHour), timezone, timezoneNote))
	helpers.RelaxLog(err)
}

// [p]daily-access remove <#channel>
func (h *Handler) actionRemove(args []string, msg *discordgo.Message) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Too few arguments, mention the channel to unschedule.")
		return
	}

	channelID := helpers.GetChannelFromMention(args[0])
	if channelID == "" {
		helpers.SendMessage(msg.ChannelID, "Invalid channel, mention the channel to unschedule.")
		return
	}

	if _, found := h.schedules.Get(channelID); !found {
		helpers.SendMessage(msg.ChannelID, "There is no schedule for <#"+channelID+">.")
		return
	}

	helpers.Relax(h.schedules.Remove(channelID))

	_, err := helpers.SendMessage(msg.ChannelID, "✅ Removed the schedule of <#"+channelID+">.")
	helpers.RelaxLog(err)
}

// [p]daily-access notifications <#channel> <on|off>
func (h *Handler) actionNotifications(args []string, msg *discordgo.Message) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Usage: `daily-access notifications <#channel> <on|off>`")
		return
	}

	channelID := helpers.GetChannelFromMention(args[0])
	if channelID == "" {
		helpers.SendMessage(msg.ChannelID, "Invalid channel.")
		return
	}

	schedule, found := h.schedules.Get(channelID)
	if !found {
		helpers.SendMessage(msg.ChannelID, "There is no schedule for <#"+channelID+">.")
		return
	}

	switch strings.ToLower(args[1]) {
	case "on", "enable", "enabled":
		schedule.Notifications = true
	case "off", "disable", "disabled":
		schedule.Notifications = false
	default:
		helpers.SendMessage(msg.ChannelID, "Usage: `daily-access notifications <#channel> <on|off>`")
		return
	}

	helpers.Relax(h.schedules.Set(channelID, schedule))

	state := "off"
	if schedule.Notifications {
		state = "on"
	}
	_, err := helpers.SendMessage(msg.ChannelID, "✅ Notifications for <#"+channelID+"> are now "+state+".")
	helpers.RelaxLog(err)
}

// [p]daily-access lists every schedule
func (h *Handler) actionList(msg *discordgo.Message) {
	schedules := h.schedules.All()
	if len(schedules) == 0 {
		helpers.SendMessage(msg.ChannelID, "No channel schedules are set up. Use `daily-access set` to create one.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "📆 Channel Schedules",
		Color: 0x0099FF,
	}
	for channelID, schedule := range schedules {
		notifications := "off"
		if schedule.Notifications {
			notifications = "on"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "#" + channelID,
			Value: fmt.Sprintf("<#%s> for <@&%s>\n%s, %s until %s (%s), notifications %s",
				channelID, schedule.RoleID, strings.Join(schedule.Days, ", "),
				formatHour(schedule.StartHour), formatHour(schedule.EndHour), schedule.Timezone, notifications),
		})
	}

	_, err := helpers.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxLog(err)
}
