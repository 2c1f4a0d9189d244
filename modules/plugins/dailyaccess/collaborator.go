package dailyaccess

import (
	"fmt"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// SendState is the current send override of a role on a channel. An
// absent override counts as closed.
type SendState int

const (
	SendAbsent SendState = iota
	SendAllowed
	SendDenied
)

// ChannelPermissions is the external permission surface the engine
// works against, small enough to fake in tests.
type ChannelPermissions interface {
	RoleOverride(channelID string, roleID string) (viewGranted bool, send SendState, err error)
	GrantView(channelID string, roleID string) error
	AllowSend(channelID string, roleID string) error
	DenySend(channelID string, roleID string) error
}

// ScheduleNotifier gets told about open/close transitions
type ScheduleNotifier interface {
	ChannelOpened(channelID string, schedule models.ChannelSchedule)
	ChannelClosed(channelID string, schedule models.ChannelSchedule)
}

// discordPermissions implements ChannelPermissions on the discord session
type discordPermissions struct{}

func (d *discordPermissions) RoleOverride(channelID string, roleID string) (bool, SendState, error) {
	overwrite, err := d.overwrite(channelID, roleID)
	if err != nil {
		return false, SendAbsent, err
	}
	if overwrite == nil {
		return false, SendAbsent, nil
	}

	viewGranted := overwrite.Allow&discordgo.PermissionReadMessages != 0

	send := SendAbsent
	if overwrite.Allow&discordgo.PermissionSendMessages != 0 {
		send = SendAllowed
	} else if overwrite.Deny&discordgo.PermissionSendMessages != 0 {
		send = SendDenied
	}
	return viewGranted, send, nil
}

func (d *discordPermissions) GrantView(channelID string, roleID string) error {
	allow, deny, err := d.currentBits(channelID, roleID)
	if err != nil {
		return err
	}

	allow |= discordgo.PermissionReadMessages
	deny &^= discordgo.PermissionReadMessages
	return cache.GetSession().ChannelPermissionSet(channelID, roleID, "role", allow, deny)
}

func (d *discordPermissions) AllowSend(channelID string, roleID string) error {
	allow, deny, err := d.currentBits(channelID, roleID)
	if err != nil {
		return err
	}

	allow |= discordgo.PermissionSendMessages
	deny &^= discordgo.PermissionSendMessages
	return cache.GetSession().ChannelPermissionSet(channelID, roleID, "role", allow, deny)
}

func (d *discordPermissions) DenySend(channelID string, roleID string) error {
	allow, deny, err := d.currentBits(channelID, roleID)
	if err != nil {
		return err
	}

	allow &^= discordgo.PermissionSendMessages
	deny |= discordgo.PermissionSendMessages
	return cache.GetSession().ChannelPermissionSet(channelID, roleID, "role", allow, deny)
}

func (d *discordPermissions) currentBits(channelID string, roleID string) (allow int, deny int, err error) {
	overwrite, err := d.overwrite(channelID, roleID)
	if err != nil {
		return 0, 0, err
	}
	if overwrite == nil {
		return 0, 0, nil
	}

	return overwrite.Allow, overwrite.Deny, nil
}

func (d *discordPermissions) overwrite(channelID string, roleID string) (*discordgo.PermissionOverwrite, error) {
	channel, err := cache.GetSession().State.Channel(channelID)
	if err != nil {
		channel, err = cache.GetSession().Channel(channelID)
		if err != nil {
			return nil, errors.Wrap(err, "unable to look up channel")
		}
	}

	for _, overwrite := range channel.PermissionOverwrites {
		if overwrite.Type == "role" && overwrite.ID == roleID {
			return overwrite, nil
		}
	}
	return nil, nil
}

// channelNotifier posts the transition embeds into the channel itself
type channelNotifier struct{}

func (n *channelNotifier) ChannelOpened(channelID string, schedule models.ChannelSchedule) {
	_, err := helpers.SendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "🔓 Channel Open!",
		Description: "This channel is now open for messages until " + formatHour(schedule.EndHour+1) + ".",
		Color:       0x00FF00,
	})
	helpers.RelaxLog(err)
}

func (n *channelNotifier) ChannelClosed(channelID string, schedule models.ChannelSchedule) {
	_, err := helpers.SendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "🔒 Channel Closed",
		Description: "This channel is closed for messages, it opens again at " + formatHour(schedule.StartHour) + ".",
		Color:       0xFF0000,
	})
	helpers.RelaxLog(err)
}

func formatHour(hour int) string {
	if hour > 23 {
		hour = 0
	}
	return fmt.Sprintf("%02d:00", hour)
}
