package modules

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/metrics"
	"github.com/bwmarrin/discordgo"
)

// Init initializes the plugins
func Init(session *discordgo.Session) {
	checkDuplicateCommands()

	pluginCount := len(PluginList)
	extendedPluginCount := len(PluginExtendedList)
	pluginCache = make(map[string]*Plugin)
	extendedPluginCache = make(map[string]*ExtendedPlugin)

	logTemplate := "[PLUG] %s reacts to [ %s]"
	listeners := ""

	for i := 0; i < pluginCount; i++ {
		ref := &PluginList[i]

		for _, cmd := range (*ref).Commands() {
			pluginCache[cmd] = ref
			listeners += cmd + " "
		}

		cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
			logTemplate,
			helpers.Typeof(*ref),
			listeners,
		))
		listeners = ""

		(*ref).Init(session)
	}

	listeners = ""
	logTemplate = "[EXTENDED-PLUG] %s reacts to [ %s]"
	for i := 0; i < extendedPluginCount; i++ {
		ref := &PluginExtendedList[i]

		for _, cmd := range (*ref).Commands() {
			extendedPluginCache[cmd] = ref
			listeners += cmd + " "
		}

		cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
			logTemplate,
			helpers.Typeof(*ref),
			listeners,
		))
		listeners = ""

		(*ref).Init(session)
	}

	pluginCommands := make([]string, 0)
	for k := range pluginCache {
		pluginCommands = append(pluginCommands, k)
	}
	cache.SetPluginList(pluginCommands)
	extendedPluginCommands := make([]string, 0)
	for k := range extendedPluginCache {
		extendedPluginCommands = append(extendedPluginCommands, k)
	}
	cache.SetPluginExtendedList(extendedPluginCommands)

	cache.GetLogger().WithField("module", "modules").Info(
		"Initializer finished. Loaded " + strconv.Itoa(len(PluginList)) + " plugins and " + strconv.Itoa(len(PluginExtendedList)) + " extended plugins")
}

// Uninit deinitializes the plugins
func Uninit(session *discordgo.Session) {
	extendedPluginCount := len(PluginExtendedList)

	logTemplate := "[EXTENDED-PLUG] %s deinitializing…"
	for i := 0; i < extendedPluginCount; i++ {
		ref := &PluginExtendedList[i]

		cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
			logTemplate,
			helpers.Typeof(*ref),
		))

		(*ref).Uninit(session)
	}

	cache.GetLogger().WithField("module", "modules").Info(
		"Uninit finished. Deinitialized " + strconv.Itoa(len(PluginExtendedList)) + " extended plugins")
}

// command - The command that triggered this execution
// content - The content without command
// msg     - The message object
func CallBotPlugin(command string, content string, msg *discordgo.Message) {
	// Defer a recovery in case anything panics
	defer helpers.RecoverDiscord(msg)

	// Track metrics
	metrics.CommandsExecuted.Add(1)

	// Call the module
	if ref, ok := pluginCache[command]; ok {
		(*ref).Action(command, content, msg, cache.GetSession())
	}
	// call the extended module
	if ref, ok := extendedPluginCache[command]; ok {
		(*ref).Action(command, content, msg, cache.GetSession())
	}
}

func CallExtendedPluginOnGuildMemberAdd(member *discordgo.Member) {
	defer helpers.Recover()

	// Iterate over all plugins
	for _, extendedPlugin := range PluginExtendedList {
		extendedPlugin.OnGuildMemberAdd(member, cache.GetSession())
	}
}

func CallExtendedPluginOnGuildMemberRemove(member *discordgo.Member) {
	defer helpers.Recover()

	// Iterate over all plugins
	for _, extendedPlugin := range PluginExtendedList {
		extendedPlugin.OnGuildMemberRemove(member, cache.GetSession())
	}
}

func CallExtendedPluginOnReactionAdd(reaction *discordgo.MessageReactionAdd) {
	defer helpers.Recover()

	// Iterate over all plugins
	for _, extendedPlugin := range PluginExtendedList {
		extendedPlugin.OnReactionAdd(reaction, cache.GetSession())
	}
}

func checkDuplicateCommands() {
	cmds := make(map[string]string)

	for _, plug := range PluginList {
		for _, cmd := range plug.Commands() {
			t := helpers.Typeof(plug)

			if occupant, ok := cmds[cmd]; ok {
				cache.GetLogger().WithField("module", "modules").Info("Failed to load " + t + " because '" + cmd + "' was already registered by " + occupant)
				os.Exit(1)
			}

			cmds[cmd] = t
		}
	}
}
