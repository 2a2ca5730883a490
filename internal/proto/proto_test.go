package proto

import "testing"

func TestSanitizeNick(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Scorpion", "Scorpion"},
		{"strips invalid", "Sub Zero!", "SubZero"},
		{"keeps underscore and dash", "sub_zero-2", "sub_zero-2"},
		{"truncates to twenty", "abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrst"},
		{"empty falls back", "", "Player"},
		{"all invalid falls back", "!!! ???", "Player"},
		{"unicode stripped", "Реptile", "ptile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeNick(tt.in); got != tt.want {
				t.Fatalf("SanitizeNick(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText("hello\x00 world\tx\r\n"); got != "hello worldx" {
		t.Fatalf("SanitizeText = %q", got)
	}
	if got := SanitizeText("plain text"); got != "plain text" {
		t.Fatalf("SanitizeText mangled clean input: %q", got)
	}
}

func TestParse(t *testing.T) {
	if msg := Parse(nil); msg != nil {
		t.Fatalf("expected nil for empty line, got %+v", msg)
	}
	msg := Parse([]byte("Mhello there"))
	if msg == nil || msg.Cmd != CmdChat || msg.Content != "hello there" {
		t.Fatalf("unexpected parse result: %+v", msg)
	}
	msg = Parse([]byte("L"))
	if msg == nil || msg.Cmd != CmdLogout || msg.Content != "" {
		t.Fatalf("bare command parse failed: %+v", msg)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(RplNotice, "hello"); got != "Shello\n" {
		t.Fatalf("Format = %q", got)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusChat, StatusAway, StatusGame, StatusQueue} {
		if !ValidStatus(s) {
			t.Fatalf("status %q should be valid", s)
		}
	}
	for _, s := range []string{"", "CHAT", "idle", "queue "} {
		if ValidStatus(s) {
			t.Fatalf("status %q should be invalid", s)
		}
	}
}
