package core

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openmortal/mortalnet/internal/config"
)

func benchmarkBroadcastFanout(b *testing.B, taps int) {
	cfg := config.Default()
	logger := zerolog.Nop()
	hub := NewHub(&cfg, &logger, nil)

	// Register taps directly; the hub loop is not running in this bench.
	for i := 0; i < taps; i++ {
		hub.taps[make(chan string, 1)] = struct{}{}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.broadcast("Mbench payload\n", 0)
	}
}

func BenchmarkBroadcastFanout_10(b *testing.B)  { benchmarkBroadcastFanout(b, 10) }
func BenchmarkBroadcastFanout_100(b *testing.B) { benchmarkBroadcastFanout(b, 100) }

func BenchmarkResolveNickCollisions(b *testing.B) {
	cfg := config.Default()
	logger := zerolog.Nop()
	hub := NewHub(&cfg, &logger, nil)

	for i := 0; i < 50; i++ {
		nick := "player"
		if i > 0 {
			nick = fmt.Sprintf("player_%d", i)
		}
		hub.nicks[nick] = uint64(i + 1)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.resolveNick("player", 0, "10.0.0.1")
	}
}
