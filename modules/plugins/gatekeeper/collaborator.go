package gatekeeper

import (
	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/bwmarrin/discordgo"
)

// MemberDirectory is the slice of the chat platform the engine needs:
// query and mutate role grants, and enumerate guild members. The live
// implementation talks to discord, tests plug in a fake.
type MemberDirectory interface {
	// MemberRoles returns the role ids $userID currently carries.
	// present is false when the user is not in the guild anymore.
	MemberRoles(guildID string, userID string) (roles []string, present bool, err error)
	AddRole(guildID string, userID string, roleID string) error
	RemoveRole(guildID string, userID string, roleID string) error
	// ListMembers returns userID -> role ids for every guild member
	ListMembers(guildID string) (map[string][]string, error)
}

// Notifier is the sink for transition events. Implementations are
// fire-and-forget, delivery failures must not reach the engine.
type Notifier interface {
	MemberJoined(userID string)
	TriggerClicked(userID string, hadUnverifiedRole bool)
	MemberRoleAssigned(userID string)
	UnverifiedRoleRemoved(userID string)
}

// discordDirectory implements MemberDirectory on the discord session
type discordDirectory struct{}

func (d *discordDirectory) MemberRoles(guildID string, userID string) (roles []string, present bool, err error) {
	member, err := cache.GetSession().State.Member(guildID, userID)
	if err != nil {
		member, err = cache.GetSession().GuildMember(guildID, userID)
		if err != nil {
			if errD, ok := err.(*discordgo.RESTError); ok && errD.Message != nil &&
				errD.Message.Code == discordgo.ErrCodeUnknownMember {
				return nil, false, nil
			}
			return nil, false, err
		}
	}

	return member.Roles, true, nil
}

func (d *discordDirectory) AddRole(guildID string, userID string, roleID string) error {
	return cache.GetSession().GuildMemberRoleAdd(guildID, userID, roleID)
}

func (d *discordDirectory) RemoveRole(guildID string, userID string, roleID string) error {
	return cache.GetSession().GuildMemberRoleRemove(guildID, userID, roleID)
}

func (d *discordDirectory) ListMembers(guildID string) (map[string][]string, error) {
	members := make(map[string][]string)

	after := ""
	for {
		page, err := cache.GetSession().GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, err
		}
		if len(page) <= 0 {
			break
		}

		for _, member := range page {
			members[member.User.ID] = member.Roles
			after = member.User.ID
		}

		if len(page) < 1000 {
			break
		}
	}

	return members, nil
}
