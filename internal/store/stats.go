// Package store handles the hub's file-backed state: the JSON stats file,
// the ban list, and the MOTD. All reads and writes happen from the hub
// goroutine; nothing here is safe for concurrent use.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PlayerStats is the persisted per-player record, keyed by nick.
type PlayerStats struct {
	FirstSeen              float64 `json:"first_seen"`
	LastSeen               float64 `json:"last_seen"`
	ConnectCount           int64   `json:"connect_count"`
	MessageCount           int64   `json:"message_count"`
	ChallengeSentCount     int64   `json:"challenge_sent_count"`
	ChallengeReceivedCount int64   `json:"challenge_received_count"`
}

// Stats is the on-disk stats document.
type Stats struct {
	ServerStart      float64                `json:"server_start"`
	TotalConnections int64                  `json:"total_connections"`
	TotalMessages    int64                  `json:"total_messages"`
	TotalChallenges  int64                  `json:"total_challenges"`
	Players          map[string]PlayerStats `json:"players"`
}

// NewStats returns an empty stats document starting now.
func NewStats() Stats {
	return Stats{
		ServerStart: float64(time.Now().Unix()),
		Players:     make(map[string]PlayerStats),
	}
}

// LoadStats reads the stats file at path. A missing or unparsable file
// yields a fresh document; the error is informational only.
func LoadStats(path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewStats(), err
	}
	defer f.Close()

	var s Stats
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return NewStats(), fmt.Errorf("decode stats: %w", err)
	}
	if s.Players == nil {
		s.Players = make(map[string]PlayerStats)
	}
	return s, nil
}

// Save writes the stats document atomically: a temp file next to path is
// renamed over it so readers never observe a partial write.
func (s *Stats) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp stats: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp stats: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename stats: %w", err)
	}
	return nil
}

// Counter names accepted by Touch.
const (
	CounterConnect           = "connect"
	CounterMessage           = "message"
	CounterChallengeSent     = "challenge_sent"
	CounterChallengeReceived = "challenge_received"
)

// Touch updates last-seen for nick and bumps the named counter. An empty
// counter name only refreshes last-seen.
func (s *Stats) Touch(nick, counter string) {
	now := float64(time.Now().Unix())
	p, ok := s.Players[nick]
	if !ok {
		p = PlayerStats{FirstSeen: now}
	}
	p.LastSeen = now
	switch counter {
	case CounterConnect:
		p.ConnectCount++
	case CounterMessage:
		p.MessageCount++
	case CounterChallengeSent:
		p.ChallengeSentCount++
	case CounterChallengeReceived:
		p.ChallengeReceivedCount++
	}
	s.Players[nick] = p
}

// Marshal renders the document as indented JSON for the raw stats endpoint.
func (s *Stats) Marshal() []byte {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return []byte("{}")
	}
	return b
}
