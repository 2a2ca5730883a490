package core

// Snapshot is a point-in-time view of the hub for the dashboard and API.
// It is built inside the hub loop and handed out by value.
type Snapshot struct {
	UptimeSeconds int64        `json:"uptime_seconds"`
	PlayerCount   int          `json:"player_count"`
	Players       []PlayerInfo `json:"players"`
	Metrics       Metrics      `json:"metrics"`
}

// PlayerInfo describes one confirmed player.
type PlayerInfo struct {
	Nick        string `json:"nick"`
	IP          string `json:"ip"`
	Status      string `json:"status"`
	JoinedAt    int64  `json:"joined_at"`
	IdleSeconds int64  `json:"idle_seconds"`
}

// Metrics are the in-process counters owned by the hub goroutine.
type Metrics struct {
	ConnectionsTotal int64 `json:"connections_total"`
	MessagesTotal    int64 `json:"messages_total"`
	ChallengesTotal  int64 `json:"challenges_total"`
	KicksTotal       int64 `json:"kicks_total"`
	BansTotal        int64 `json:"bans_total"`
}
