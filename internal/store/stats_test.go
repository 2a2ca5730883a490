package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStatsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	s := NewStats()
	s.TotalConnections = 7
	s.TotalMessages = 41
	s.TotalChallenges = 3
	s.Touch("scorpion", CounterConnect)
	s.Touch("scorpion", CounterMessage)
	s.Touch("subzero", CounterChallengeReceived)

	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadStats(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(s, loaded) {
		t.Fatalf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", s, loaded)
	}

	// No temp file should survive the atomic rename.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestLoadStatsMissingFile(t *testing.T) {
	s, err := LoadStats(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected informational error for missing file")
	}
	if s.Players == nil || s.ServerStart == 0 {
		t.Fatalf("expected fresh document, got %+v", s)
	}
}

func TestLoadStatsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStats(path)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if s.Players == nil {
		t.Fatal("fresh document must have a players map")
	}
}

func TestTouchCounters(t *testing.T) {
	s := NewStats()
	s.Touch("raiden", CounterConnect)
	s.Touch("raiden", CounterMessage)
	s.Touch("raiden", CounterMessage)
	s.Touch("raiden", "")

	p := s.Players["raiden"]
	if p.ConnectCount != 1 || p.MessageCount != 2 {
		t.Fatalf("unexpected counters: %+v", p)
	}
	if p.FirstSeen == 0 || p.LastSeen < p.FirstSeen {
		t.Fatalf("seen timestamps wrong: %+v", p)
	}
}

func TestBanListLoadAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.txt")
	content := "# banned hosts\n10.0.0.1\n\n192.168.1.5\n# trailing comment\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	bans, err := LoadBanList(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(bans) != 2 {
		t.Fatalf("expected 2 bans, got %v", bans)
	}
	if _, ok := bans["10.0.0.1"]; !ok {
		t.Fatal("missing 10.0.0.1")
	}

	if err := AppendBan(path, "172.16.0.9"); err != nil {
		t.Fatalf("append: %v", err)
	}
	bans, err = LoadBanList(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := bans["172.16.0.9"]; !ok {
		t.Fatal("appended ban not visible after reload")
	}
}

func TestReadMOTD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motd.txt")
	if err := os.WriteFile(path, []byte("  Welcome to MortalNet!\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	motd, err := ReadMOTD(path, "inline fallback")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if motd != "Welcome to MortalNet!" {
		t.Fatalf("unexpected motd: %q", motd)
	}

	motd, err = ReadMOTD("", "inline fallback")
	if err != nil || motd != "inline fallback" {
		t.Fatalf("inline fallback not used: %q, %v", motd, err)
	}

	motd, err = ReadMOTD(filepath.Join(t.TempDir(), "missing"), "inline fallback")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if motd != "inline fallback" {
		t.Fatalf("fallback not returned on error: %q", motd)
	}
}
