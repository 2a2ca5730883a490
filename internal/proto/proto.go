// Package proto implements the MortalNet line protocol: one ASCII command
// byte, free-form content, newline terminated. A trailing carriage return is
// tolerated on input and stripped by the framing layer.
package proto

import (
	"strings"
	"unicode"
)

// Client → server command bytes.
const (
	CmdNick      byte = 'N' // set or change nick
	CmdChat      byte = 'M' // broadcast chat message
	CmdChallenge byte = 'C' // challenge a player by nick
	CmdWhois     byte = 'W' // look up a player's IP
	CmdStatus    byte = 'T' // set presence status
	CmdAdmin     byte = 'A' // admin sub-command, password in content
	CmdLogout    byte = 'L' // close the connection
)

// Server → client message bytes.
const (
	RplNickOK    byte = 'Y' // nick confirmed
	RplJoined    byte = 'J' // "nick ip" joined
	RplLeft      byte = 'L' // "nick" left
	RplRenamed   byte = 'N' // "old new" rename announcement
	RplChat      byte = 'M' // "nick text" chat line
	RplChallenge byte = 'C' // "nick" challenges you
	RplWhois     byte = 'W' // "nick ip" whois reply
	RplStatus    byte = 'T' // "nick status" status change
	RplNotice    byte = 'S' // server notice / error text
)

// MaxNickLen is the hard cap on nick length after sanitization.
const MaxNickLen = 20

// Presence statuses a client may set.
const (
	StatusChat  = "chat"
	StatusAway  = "away"
	StatusGame  = "game"
	StatusQueue = "queue"
)

// Message is a parsed client line.
type Message struct {
	Cmd     byte
	Content string
}

// Parse splits a raw line (without its trailing newline) into a Message.
// Returns nil for an empty line.
func Parse(line []byte) *Message {
	if len(line) == 0 {
		return nil
	}
	content := ""
	if len(line) > 1 {
		content = string(line[1:])
	}
	return &Message{Cmd: line[0], Content: content}
}

// Format renders a server → client line, newline included.
func Format(cmd byte, content string) string {
	return string(cmd) + content + "\n"
}

// SanitizeNick strips characters outside [A-Za-z0-9_-], truncates to
// MaxNickLen, and falls back to "Player" if nothing survives.
func SanitizeNick(nick string) string {
	var b strings.Builder
	for _, r := range nick {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
			if b.Len() == MaxNickLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "Player"
	}
	return b.String()
}

// SanitizeText removes all control characters except space.
func SanitizeText(text string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, text)
}

// ValidStatus reports whether s is an allowed presence status.
func ValidStatus(s string) bool {
	switch s {
	case StatusChat, StatusAway, StatusGame, StatusQueue:
		return true
	}
	return false
}
