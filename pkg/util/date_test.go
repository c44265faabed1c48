package util

import (
	"strconv"
	"testing"
	"time"
)

func TestForecastDates(t *testing.T) {
	last := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	got := ForecastDates(last, 3)
	want := []string{"2024-10-11", "2024-10-12", "2024-10-13"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("date %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestForecastDatesCrossMonth(t *testing.T) {
	last := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got := ForecastDates(last, 2)
	if got[0] != "2024-02-01" || got[1] != "2024-02-02" {
		t.Fatalf("unexpected dates %v", got)
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeISODate(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Format(ISODate) != "2024-10-10" {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if got := PeriodStart(now, "6mo"); !got.Equal(now.AddDate(0, -6, 0)) {
		t.Fatalf("unexpected 6mo start %v", got)
	}
	if got := PeriodStart(now, "bogus"); !got.Equal(now.AddDate(-1, 0, 0)) {
		t.Fatalf("unknown period should default to 1y, got %v", got)
	}
}
