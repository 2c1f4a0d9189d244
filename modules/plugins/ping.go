package plugins

import (
	"strconv"
	"strings"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/bwmarrin/discordgo"
)

type Ping struct{}

const pingMessage = "🏓 Pong!"

func (p *Ping) Commands() []string {
	return []string{
		"ping",
	}
}

func (p *Ping) Init(session *discordgo.Session) {
	session.AddHandler(p.OnMessage)
}

func (p *Ping) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	_, err := helpers.SendMessage(msg.ChannelID, pingMessage+" ~ "+strconv.FormatInt(time.Now().UnixNano(), 10))
	helpers.RelaxLog(err)
}

// OnMessage measures the latencies on the bot's own ping message
func (p *Ping) OnMessage(session *discordgo.Session, message *discordgo.MessageCreate) {
	if message.Author == nil || message.Author.ID != session.State.User.ID {
		return
	}

	if !strings.HasPrefix(message.Content, pingMessage+" ~ ") {
		return
	}

	textUnixNano := strings.Replace(message.Content, pingMessage+" ~ ", "", 1)

	parsedUnixNano, err := strconv.ParseInt(textUnixNano, 10, 64)
	if err != nil {
		return
	}

	gatewayTaken := time.Duration(time.Now().UnixNano() - parsedUnixNano)

	text := pingMessage + "\nGateway Latency (receive message): " + gatewayTaken.String()

	started := time.Now()
	session.ChannelMessageEdit(message.ChannelID, message.ID, text)
	apiTaken := time.Since(started)

	text = text + "\nHTTP API Latency (edit message): " + apiTaken.String()

	session.ChannelMessageEdit(message.ChannelID, message.ID, text)
}
