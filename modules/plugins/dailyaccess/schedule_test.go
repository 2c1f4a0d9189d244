package dailyaccess

import (
	"testing"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/sirupsen/logrus"
)

func TestEvaluate(t *testing.T) {
	cache.SetLogger(logrus.New())

	schedule := models.ChannelSchedule{
		Days:      []string{"monday"},
		StartHour: 9,
		EndHour:   17,
		Timezone:  "UTC",
	}

	// 2018-07-02 is a monday
	monday := time.Date(2018, 7, 2, 10, 0, 0, 0, time.UTC)
	if !Evaluate(schedule, monday) {
		t.Fatal("expected monday 10:00 UTC to be open")
	}

	tuesday := time.Date(2018, 7, 3, 10, 0, 0, 0, time.UTC)
	if Evaluate(schedule, tuesday) {
		t.Fatal("expected tuesday 10:00 UTC to be closed")
	}

	// the hour window is inclusive on both ends
	if !Evaluate(schedule, time.Date(2018, 7, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatal("expected the start hour to be open")
	}
	if !Evaluate(schedule, time.Date(2018, 7, 2, 17, 59, 0, 0, time.UTC)) {
		t.Fatal("expected the end hour to be open")
	}
	if Evaluate(schedule, time.Date(2018, 7, 2, 8, 59, 0, 0, time.UTC)) {
		t.Fatal("expected before the start hour to be closed")
	}
	if Evaluate(schedule, time.Date(2018, 7, 2, 18, 0, 0, 0, time.UTC)) {
		t.Fatal("expected after the end hour to be closed")
	}
}

func TestEvaluateConvertsTimezone(t *testing.T) {
	cache.SetLogger(logrus.New())

	schedule := models.ChannelSchedule{
		Days:      []string{"monday"},
		StartHour: 9,
		EndHour:   17,
		Timezone:  "Europe/Berlin",
	}

	// 08:30 UTC is 10:30 in Berlin during summer time
	if !Evaluate(schedule, time.Date(2018, 7, 2, 8, 30, 0, 0, time.UTC)) {
		t.Fatal("expected monday 08:30 UTC to be open in Berlin")
	}

	// 06:30 UTC is only 08:30 in Berlin
	if Evaluate(schedule, time.Date(2018, 7, 2, 6, 30, 0, 0, time.UTC)) {
		t.Fatal("expected monday 06:30 UTC to be closed in Berlin")
	}
}

func TestEvaluateUnknownTimezoneFallsBackToUTC(t *testing.T) {
	cache.SetLogger(logrus.New())

	schedule := models.ChannelSchedule{
		Days:      []string{"monday"},
		StartHour: 9,
		EndHour:   17,
		Timezone:  "Neverland/Nowhere",
	}

	if !Evaluate(schedule, time.Date(2018, 7, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatal("expected the unknown timezone to be evaluated as UTC")
	}
}
