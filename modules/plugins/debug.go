package plugins

import (
	"bufio"
	"bytes"
	"fmt"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/metrics"
	"github.com/bwmarrin/discordgo"
	"github.com/davecgh/go-spew/spew"
	humanize "github.com/dustin/go-humanize"
)

type Debug struct{}

func (d *Debug) Commands() []string {
	return []string{
		"debug",
	}
}

func (d *Debug) Init(session *discordgo.Session) {
}

func (d *Debug) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if !helpers.IsBotOwner(msg.Author.ID) {
		return
	}

	args := strings.Fields(content)

	subcommand := "stats"
	if len(args) > 0 {
		subcommand = args[0]
	}

	switch subcommand {
	case "goroutines", "goroutine":
		session.ChannelTyping(msg.ChannelID)

		var buf bytes.Buffer
		writer := bufio.NewWriter(&buf)
		err := pprof.Lookup("goroutine").WriteTo(writer, 1)
		helpers.Relax(err)
		err = writer.Flush()
		helpers.Relax(err)

		_, err = helpers.SendComplex(
			msg.ChannelID, &discordgo.MessageSend{
				Content: fmt.Sprintf("<@%s> Your request is ready:", msg.Author.ID),
				Files: []*discordgo.File{
					{
						Name:   "gatekeeper-goroutines-dump.txt",
						Reader: bytes.NewReader(buf.Bytes()),
					},
				},
			})
		helpers.RelaxLog(err)
	case "memory", "mem":
		session.ChannelTyping(msg.ChannelID)

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		dump := spew.Sdump(memStats)
		if len(dump) > 1900 {
			dump = dump[:1900]
		}
		_, err := helpers.SendMessage(msg.ChannelID, "```\n"+dump+"\n```")
		helpers.RelaxLog(err)
	case "stats":
		bootedAt := time.Unix(metrics.Uptime.Value(), 0)

		embed := &discordgo.MessageEmbed{
			Title: "🛠 Debug Stats",
			Color: 0x0099FF,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Uptime", Value: humanize.Time(bootedAt), Inline: true},
				{Name: "Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
				{Name: "Commands executed", Value: fmt.Sprintf("%d", metrics.CommandsExecuted.Value()), Inline: true},
				{Name: "Member joins", Value: fmt.Sprintf("%d", metrics.MemberJoins.Value()), Inline: true},
				{Name: "Onboarding triggers", Value: fmt.Sprintf("%d", metrics.TriggerActions.Value()), Inline: true},
				{Name: "Member roles granted", Value: fmt.Sprintf("%d", metrics.MemberRolesGranted.Value()), Inline: true},
				{Name: "Reconcile passes", Value: fmt.Sprintf("%d", metrics.ReconcilePasses.Value()), Inline: true},
				{Name: "Channels opened / closed", Value: fmt.Sprintf("%d / %d",
					metrics.ChannelsOpened.Value(), metrics.ChannelsClosed.Value()), Inline: true},
				{Name: "Critical errors", Value: fmt.Sprintf("%d", metrics.CriticalErrors.Value()), Inline: true},
			},
		}

		_, err := helpers.SendEmbed(msg.ChannelID, embed)
		helpers.RelaxLog(err)
	}
}
