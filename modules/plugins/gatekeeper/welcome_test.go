package gatekeeper

import (
	"strconv"
	"testing"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type fakePoster struct {
	posts     int
	edits     int
	reactions int
	editErr   error
}

func (p *fakePoster) EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) error {
	if p.editErr != nil {
		return p.editErr
	}
	p.edits++
	return nil
}

func (p *fakePoster) PostEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	p.posts++
	return "message-" + strconv.Itoa(p.posts), nil
}

func (p *fakePoster) React(channelID string, messageID string) error {
	p.reactions++
	return nil
}

func TestWelcomeMessageReusesPointer(t *testing.T) {
	cache.SetLogger(logrus.New())
	err := helpers.SetStorageDir(t.TempDir())
	if err != nil {
		t.Fatalf("unable to set up storage dir: %s", err.Error())
	}

	poster := &fakePoster{}

	messageID, err := ensureWelcomeMessage(poster, "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if poster.posts != 1 {
		t.Fatalf("expected 1 post, got %d", poster.posts)
	}
	if WelcomeMessageID() != messageID {
		t.Fatal("expected the pointer document to hold the posted message id")
	}

	// a second run edits the existing message instead of reposting
	secondID, err := ensureWelcomeMessage(poster, "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if secondID != messageID {
		t.Fatalf("expected the same message id, got %s and %s", messageID, secondID)
	}
	if poster.posts != 1 || poster.edits != 1 {
		t.Fatalf("expected 1 post and 1 edit, got %d / %d", poster.posts, poster.edits)
	}
	if poster.reactions != 2 {
		t.Fatalf("expected the reaction to be re-seeded, got %d reactions", poster.reactions)
	}
}

func TestWelcomeMessageRepostsWhenEditFails(t *testing.T) {
	cache.SetLogger(logrus.New())
	err := helpers.SetStorageDir(t.TempDir())
	if err != nil {
		t.Fatalf("unable to set up storage dir: %s", err.Error())
	}

	poster := &fakePoster{}
	firstID, err := ensureWelcomeMessage(poster, "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	// the stored message got deleted on discord
	poster.editErr = errors.New("unknown message")

	secondID, err := ensureWelcomeMessage(poster, "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if secondID == firstID {
		t.Fatal("expected a fresh message to be posted")
	}
	if WelcomeMessageID() != secondID {
		t.Fatal("expected the pointer document to follow the fresh message")
	}
}

func TestWelcomeMessageRequiresChannel(t *testing.T) {
	cache.SetLogger(logrus.New())
	err := helpers.SetStorageDir(t.TempDir())
	if err != nil {
		t.Fatalf("unable to set up storage dir: %s", err.Error())
	}

	_, err = ensureWelcomeMessage(&fakePoster{}, "")
	if err == nil {
		t.Fatal("expected an error without a configured channel")
	}
}
