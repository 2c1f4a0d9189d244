package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/logging"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/metrics"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/modules"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/ratelimits"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/version"
	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/kz/discordrus"
	"github.com/sirupsen/logrus"
)

// Entrypoint
func main() {
	var err error

	log := logrus.New()
	log.Out = os.Stdout
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339}
	log.Hooks = make(logrus.LevelHooks)
	cache.SetLogger(log)

	// Read config
	helpers.LoadConfig("config.json")

	// Check if the bot is being debugged
	if helpers.GetConfigBool("debug", false) {
		helpers.DEBUG_MODE = true
	}

	if helpers.GetConfigString("logging.jsonfile") != "" {
		fileHook, err := logging.NewLogrusFileHook(helpers.GetConfigString("logging.jsonfile"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			log.WithField("module", "launcher").Error("logrus file hook failed, err:", err.Error())
		} else {
			log.Hooks.Add(fileHook)
		}
	}

	if helpers.GetConfigString("logging.discord_webhook") != "" {
		log.Hooks.Add(discordrus.NewHook(
			helpers.GetConfigString("logging.discord_webhook"),
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Logging",
				DisableTimestamp:   false,
				TimestampFormat:    "Jan 2 15:04:05.00000",
				EnableCustomColors: true,
				CustomLevelColors: &discordrus.LevelColors{
					Error: 13631488,
					Panic: 13631488,
					Fatal: 13631488,
				},
			},
		))
	}

	log.WithField("module", "launcher").Info("Booting the gatekeeper...")

	// Show version
	version.DumpInfo()

	// Open the flat-file store
	storageDir := helpers.GetConfigString("storage.dir")
	if storageDir == "" {
		storageDir = "data"
	}
	err = helpers.SetStorageDir(storageDir)
	if err != nil {
		panic(err)
	}

	// Start metric server
	metrics.Init(helpers.GetConfigString("metrics.address"))

	// Make the randomness more random
	rand.Seed(time.Now().UTC().UnixNano())

	// Call home
	log.WithField("module", "launcher").Info("[SENTRY] Calling home...")
	err = raven.SetDSN(helpers.GetConfigString("sentry"))
	if err != nil {
		panic(err)
	}
	if version.BOT_VERSION != "UNSET" {
		raven.SetRelease(version.BOT_VERSION)
	}
	log.WithField("module", "launcher").Info("[SENTRY] Someone picked up the phone \\^-^/")

	// Connect and add event handlers
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		pc, file, line, _ := runtime.Caller(caller)

		files := strings.Split(file, "/")
		file = files[len(files)-1]

		name := runtime.FuncForPC(pc).Name()
		fns := strings.Split(name, ".")
		name = fns[len(fns)-1]

		msg := format
		if strings.Contains(msg, "%") {
			msg = fmt.Sprintf(format, a...)
		}

		switch msgL {
		case discordgo.LogError:
			log.WithField("module", "discordgo").Errorf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogWarning:
			log.WithField("module", "discordgo").Warnf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogInformational:
			log.WithField("module", "discordgo").Infof("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogDebug:
			log.WithField("module", "discordgo").Debugf("%s:%d:%s() %s", file, line, name, msg)
		}
	}

	log.WithField("module", "launcher").Info("Connecting the gatekeeper to discord...")
	discord, err := discordgo.New("Bot " + helpers.GetConfigString("discord.token"))
	if err != nil {
		panic(err)
	}

	discord.Lock()
	discord.Debug = false
	discord.LogLevel = discordgo.LogInformational
	discord.StateEnabled = true
	discord.Unlock()

	discord.AddHandler(BotOnReady)
	discord.AddHandler(BotOnMessageCreate)
	discord.AddHandler(BotOnGuildMemberAdd)
	discord.AddHandler(BotOnGuildMemberRemove)
	discord.AddHandler(BotOnReactionAdd)

	// Connect to discord
	err = discord.Open()
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		panic(err)
	}

	// Wait for a termination signal
	channel := make(chan os.Signal, 1)
	signal.Notify(channel, syscall.SIGINT, syscall.SIGTERM, os.Interrupt, os.Kill)
	<-channel

	log.WithField("module", "launcher").Info("The end is near. Being a good kid and setting the house in order...")

	// Uninit plugins and stop the periodic loops
	modules.Uninit(discord)
	ratelimits.Container.Uninit()

	log.WithField("module", "launcher").Info("Disconnecting from discord...")
	discord.Close()
}
