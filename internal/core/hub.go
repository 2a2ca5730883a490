// Package core implements the MortalNet hub: a single goroutine owning the
// client registry, nick table, ban set, chat history and persistent stats,
// fed by a bounded event queue and read-only query channels.
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openmortal/mortalnet/internal/auth"
	"github.com/openmortal/mortalnet/internal/config"
	"github.com/openmortal/mortalnet/internal/proto"
	"github.com/openmortal/mortalnet/internal/store"
)

const (
	eventBufSize = 256
	queryBufSize = 16
	// statsSaveEvery bounds stats file I/O under chat load.
	statsSaveEvery = 20
)

// reservation holds a recently vacated nick for its original IP.
type reservation struct {
	ip     string
	expiry time.Time
}

// Hub owns all shared lobby state. Every map below is touched only from
// Run's goroutine; outside callers go through the event and query channels.
type Hub struct {
	cfg     *config.Config
	log     *zerolog.Logger
	archive store.Archive // nil when disabled

	events    chan Event
	snapshots chan chan Snapshot
	rawStats  chan chan []byte
	tapAdd    chan chan string
	tapRemove chan chan string

	clients   map[uint64]*Client
	nicks     map[string]uint64
	reserved  map[string]reservation
	banned    map[string]struct{}
	history   []string
	taps      map[chan string]struct{}
	motd      string
	metrics   Metrics
	stats     store.Stats
	startTime time.Time
	clientWG  sync.WaitGroup
}

// NewHub builds a hub and loads its file-backed state. File errors are
// logged and degrade to defaults; they never prevent startup.
func NewHub(cfg *config.Config, logger *zerolog.Logger, archive store.Archive) *Hub {
	h := &Hub{
		cfg:       cfg,
		log:       logger,
		archive:   archive,
		events:    make(chan Event, eventBufSize),
		snapshots: make(chan chan Snapshot, queryBufSize),
		rawStats:  make(chan chan []byte, queryBufSize),
		tapAdd:    make(chan chan string, queryBufSize),
		tapRemove: make(chan chan string, queryBufSize),
		clients:   make(map[uint64]*Client),
		nicks:     make(map[string]uint64),
		reserved:  make(map[string]reservation),
		banned:    make(map[string]struct{}),
		taps:      make(map[chan string]struct{}),
		startTime: time.Now(),
	}
	h.stats = h.loadStats()
	h.reloadFiles()
	return h
}

// Run processes events until ctx is cancelled, then notifies every client,
// closes all connections, and waits for their pumps to exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case ev := <-h.events:
			switch ev.Kind {
			case EventJoin:
				h.handleJoin(ev.Client)
			case EventMessage:
				h.handleMessage(ev.Client, ev.Msg)
			case EventLeave:
				h.handleLeave(ev.Client)
			case EventReload:
				h.reloadFiles()
				h.log.Info().Msg("reloaded ban list and MOTD")
			}

		case reply := <-h.snapshots:
			reply <- h.buildSnapshot()

		case reply := <-h.rawStats:
			reply <- h.stats.Marshal()

		case tap := <-h.tapAdd:
			h.taps[tap] = struct{}{}

		case tap := <-h.tapRemove:
			if _, ok := h.taps[tap]; ok {
				delete(h.taps, tap)
				close(tap)
			}
		}
	}
}

// shutdown notifies every client, closes their send queues and sockets,
// then keeps serving the channels until every pump has exited. Leave events
// arriving during the drain need no handling beyond removal: the sockets
// are already closed and nobody is left to broadcast to. Queries are still
// answered so dashboard handlers cannot hang on a dying hub.
func (h *Hub) shutdown() {
	notice := proto.Format(proto.RplNotice, "Server is shutting down.")
	for _, c := range h.clients {
		c.enqueue(h, notice)
		close(c.send)
		c.conn.Close()
	}

	done := make(chan struct{})
	go func() {
		h.clientWG.Wait()
		close(done)
	}()

	for {
		select {
		case ev := <-h.events:
			switch ev.Kind {
			case EventLeave:
				delete(h.clients, ev.Client.id)
			case EventJoin:
				ev.Client.conn.Close()
			}
		case reply := <-h.snapshots:
			reply <- h.buildSnapshot()
		case reply := <-h.rawStats:
			reply <- h.stats.Marshal()
		case tap := <-h.tapAdd:
			close(tap)
		case tap := <-h.tapRemove:
			if _, ok := h.taps[tap]; ok {
				delete(h.taps, tap)
				close(tap)
			}
		case <-done:
			for tap := range h.taps {
				close(tap)
			}
			h.saveStats()
			return
		}
	}
}

// TryJoin offers a freshly accepted client to the hub without blocking.
// It returns false when the event queue is full; the acceptor then rejects
// the connection itself.
func (h *Hub) TryJoin(c *Client) bool {
	select {
	case h.events <- Event{Kind: EventJoin, Client: c}:
		return true
	default:
		return false
	}
}

// Reload schedules a re-read of the ban list and MOTD. Dropped silently if
// the event queue is full; the next signal will get through.
func (h *Hub) Reload() {
	select {
	case h.events <- Event{Kind: EventReload}:
	default:
	}
}

// GetSnapshot returns a point-in-time view for the dashboard.
func (h *Hub) GetSnapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	h.snapshots <- reply
	return <-reply
}

// GetRawStats returns the persisted stats document as indented JSON.
func (h *Hub) GetRawStats() []byte {
	reply := make(chan []byte, 1)
	h.rawStats <- reply
	return <-reply
}

// Subscribe registers a read-only tap that receives every broadcast line.
// Slow taps lose lines rather than slowing the hub.
func (h *Hub) Subscribe() chan string {
	tap := make(chan string, sendBufSize)
	h.tapAdd <- tap
	return tap
}

// Unsubscribe removes a tap. The hub closes the channel.
func (h *Hub) Unsubscribe(tap chan string) {
	h.tapRemove <- tap
}

func (h *Hub) buildSnapshot() Snapshot {
	now := time.Now()
	players := make([]PlayerInfo, 0, len(h.clients))
	for _, c := range h.clients {
		c.mu.Lock()
		confirmed := c.confirmed
		nick := c.nick
		status := c.status
		last := c.lastActivity
		c.mu.Unlock()
		if !confirmed {
			continue
		}
		players = append(players, PlayerInfo{
			Nick:        nick,
			IP:          c.ip,
			Status:      status,
			JoinedAt:    c.joinedAt.Unix(),
			IdleSeconds: int64(now.Sub(last).Seconds()),
		})
	}
	return Snapshot{
		UptimeSeconds: int64(now.Sub(h.startTime).Seconds()),
		PlayerCount:   len(players),
		Players:       players,
		Metrics:       h.metrics,
	}
}

// ---- Join / leave ----

func (h *Hub) handleJoin(c *Client) {
	if _, banned := h.banned[c.ip]; banned {
		h.log.Info().Str("ip", c.ip).Msg("rejected banned IP")
		h.rejectAndClose(c, "You are banned from this server.")
		return
	}

	if len(h.clients) >= h.cfg.MaxClients {
		h.log.Warn().Str("ip", c.ip).Msg("max clients reached, rejecting")
		h.rejectAndClose(c, "Server is full. Try again later.")
		return
	}

	h.metrics.ConnectionsTotal++
	h.stats.TotalConnections++

	c.mu.Lock()
	c.bucket = newTokenBucket(h.cfg.Rate, h.cfg.Burst)
	c.mu.Unlock()

	h.clients[c.id] = c
	h.log.Info().Uint64("client", c.id).Str("ip", c.ip).Msg("client accepted")

	h.clientWG.Add(2)
	go func() { defer h.clientWG.Done(); c.writePump(h) }()
	go func() { defer h.clientWG.Done(); c.readPump(h) }()
}

// rejectAndClose sends a rejection line and closes on a detached goroutine
// so a stuck socket cannot block the hub loop. The client never entered the
// registry, so there is no state to unwind.
func (h *Hub) rejectAndClose(c *Client, reason string) {
	go func() {
		c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		fmt.Fprint(c.conn, proto.Format(proto.RplNotice, reason))
		c.conn.Close()
	}()
}

func (h *Hub) handleLeave(c *Client) {
	if _, exists := h.clients[c.id]; !exists {
		return
	}
	delete(h.clients, c.id)

	c.mu.Lock()
	confirmed := c.confirmed
	nick := c.nick
	c.mu.Unlock()

	if confirmed {
		delete(h.nicks, nick)
		if h.cfg.NickReserveSecs > 0 {
			h.reserved[nick] = reservation{
				ip:     c.ip,
				expiry: time.Now().Add(time.Duration(h.cfg.NickReserveSecs) * time.Second),
			}
		}
		h.broadcast(proto.Format(proto.RplLeft, nick), 0)
		h.stats.Touch(nick, "")
		h.saveStats()
		h.log.Info().Uint64("client", c.id).Str("nick", nick).Msg("client left")
	} else {
		h.log.Info().Uint64("client", c.id).Msg("unregistered client disconnected")
	}

	close(c.send)
}

// ---- Message dispatch ----

func (h *Hub) handleMessage(c *Client, msg *proto.Message) {
	// A message may race a leave event through the queue.
	if _, exists := h.clients[c.id]; !exists {
		return
	}

	if !c.Confirmed() && msg.Cmd != proto.CmdNick && msg.Cmd != proto.CmdLogout {
		return
	}

	switch msg.Cmd {
	case proto.CmdChat, proto.CmdChallenge, proto.CmdWhois, proto.CmdStatus:
		allowed, strikes := c.consumeToken()
		if !allowed {
			h.log.Debug().Uint64("client", c.id).Int("strike", strikes).Msg("rate limited")
			if strikes >= h.cfg.Strikes {
				c.enqueue(h, proto.Format(proto.RplNotice, "You have been disconnected for flooding."))
				c.conn.Close()
			}
			return
		}
	}

	switch msg.Cmd {
	case proto.CmdNick:
		h.onNick(c, msg.Content)
	case proto.CmdChat:
		h.onChat(c, msg.Content)
	case proto.CmdChallenge:
		h.onChallenge(c, msg.Content)
	case proto.CmdWhois:
		h.onWhois(c, msg.Content)
	case proto.CmdStatus:
		h.onStatus(c, msg.Content)
	case proto.CmdAdmin:
		h.onAdmin(c, msg.Content)
	case proto.CmdLogout:
		c.conn.Close()
	default:
		h.log.Debug().Uint64("client", c.id).Str("cmd", string(msg.Cmd)).Msg("unknown command")
	}
}

// ---- Protocol handlers ----

func (h *Hub) onNick(c *Client, requested string) {
	newNick := h.resolveNick(proto.SanitizeNick(requested), c.id, c.ip)

	c.mu.Lock()
	confirmed := c.confirmed
	oldNick := c.nick
	c.mu.Unlock()

	if confirmed {
		if newNick == oldNick {
			return
		}
		delete(h.nicks, oldNick)
		h.nicks[newNick] = c.id
		c.mu.Lock()
		c.nick = newNick
		c.mu.Unlock()
		c.enqueue(h, proto.Format(proto.RplNickOK, newNick))
		h.broadcast(proto.Format(proto.RplRenamed, oldNick+" "+newNick), 0)
		h.log.Info().Uint64("client", c.id).Str("old", oldNick).Str("new", newNick).Msg("nick changed")
		return
	}

	// First registration.
	h.nicks[newNick] = c.id
	delete(h.reserved, newNick)
	c.mu.Lock()
	c.nick = newNick
	c.confirmed = true
	c.mu.Unlock()

	h.stats.Touch(newNick, store.CounterConnect)
	h.saveStats()

	// Confirm, then replay roster, history and MOTD, then announce.
	c.enqueue(h, proto.Format(proto.RplNickOK, newNick))

	for _, other := range h.clients {
		if other.id == c.id || !other.Confirmed() {
			continue
		}
		c.enqueue(h, proto.Format(proto.RplJoined, other.Nick()+" "+other.ip))
	}

	for _, line := range h.history {
		c.enqueue(h, line)
	}

	if h.motd != "" {
		for _, line := range strings.Split(h.motd, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				c.enqueue(h, proto.Format(proto.RplNotice, line))
			}
		}
	}

	h.broadcast(proto.Format(proto.RplJoined, newNick+" "+c.ip), c.id)
	h.log.Info().Uint64("client", c.id).Str("nick", newNick).Str("ip", c.ip).Msg("client registered")
}

func (h *Hub) onChat(c *Client, text string) {
	text = proto.SanitizeText(text)
	if text == "" {
		return
	}
	nick := c.Nick()
	msg := proto.Format(proto.RplChat, nick+" "+text)

	h.history = append(h.history, msg)
	if len(h.history) > h.cfg.HistorySize {
		h.history = h.history[1:]
	}

	h.broadcast(msg, 0)
	h.metrics.MessagesTotal++
	h.stats.TotalMessages++
	h.stats.Touch(nick, store.CounterMessage)
	if h.stats.TotalMessages%statsSaveEvery == 0 {
		h.saveStats()
	}

	if h.archive != nil {
		if err := h.archive.SaveMessage(context.Background(), nick, text); err != nil {
			h.log.Warn().Err(err).Msg("archive message failed")
		}
	}
}

func (h *Hub) onChallenge(c *Client, targetNick string) {
	myNick := c.Nick()
	if targetNick == myNick {
		c.enqueue(h, proto.Format(proto.RplNotice, "You cannot challenge yourself."))
		return
	}
	target := h.clientByNick(targetNick)
	if target == nil {
		c.enqueue(h, proto.Format(proto.RplNotice, "No such user: "+targetNick))
		return
	}
	target.enqueue(h, proto.Format(proto.RplChallenge, myNick))
	h.metrics.ChallengesTotal++
	h.stats.TotalChallenges++
	h.stats.Touch(myNick, store.CounterChallengeSent)
	h.stats.Touch(targetNick, store.CounterChallengeReceived)
	h.log.Info().Str("from", myNick).Str("to", targetNick).Msg("challenge sent")
}

func (h *Hub) onWhois(c *Client, targetNick string) {
	target := h.clientByNick(targetNick)
	if target == nil {
		c.enqueue(h, proto.Format(proto.RplNotice, "No such user: "+targetNick))
		return
	}
	c.enqueue(h, proto.Format(proto.RplWhois, target.Nick()+" "+target.ip))
}

func (h *Hub) onStatus(c *Client, status string) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !proto.ValidStatus(status) {
		c.enqueue(h, proto.Format(proto.RplNotice, "Invalid status. Choose: chat, away, game, queue"))
		return
	}
	c.mu.Lock()
	c.status = status
	nick := c.nick
	c.mu.Unlock()

	h.broadcast(proto.Format(proto.RplStatus, nick+" "+status), 0)
	h.log.Info().Str("nick", nick).Str("status", status).Msg("status changed")

	if status == proto.StatusQueue {
		h.tryMatchmake(c)
	}
}

// tryMatchmake pairs the joiner with the first other queued client found.
// Map iteration order makes the choice arbitrary across several waiters.
func (h *Hub) tryMatchmake(joiner *Client) {
	joinerNick := joiner.Nick()

	for _, other := range h.clients {
		if other.id == joiner.id {
			continue
		}
		other.mu.Lock()
		ok := other.confirmed && other.status == proto.StatusQueue
		otherNick := other.nick
		other.mu.Unlock()
		if !ok {
			continue
		}

		joiner.enqueue(h, proto.Format(proto.RplChallenge, otherNick))
		other.enqueue(h, proto.Format(proto.RplChallenge, joinerNick))

		joiner.mu.Lock()
		joiner.status = proto.StatusChat
		joiner.mu.Unlock()
		other.mu.Lock()
		other.status = proto.StatusChat
		other.mu.Unlock()

		h.broadcast(proto.Format(proto.RplStatus, joinerNick+" "+proto.StatusChat), 0)
		h.broadcast(proto.Format(proto.RplStatus, otherNick+" "+proto.StatusChat), 0)

		joiner.enqueue(h, proto.Format(proto.RplNotice, "Matchmaking: paired with "+otherNick+"!"))
		other.enqueue(h, proto.Format(proto.RplNotice, "Matchmaking: paired with "+joinerNick+"!"))

		h.metrics.ChallengesTotal++
		h.log.Info().Str("a", joinerNick).Str("b", otherNick).Msg("matchmaking pair")

		if h.archive != nil {
			if err := h.archive.SaveMatch(context.Background(), uuid.NewString(), joinerNick, otherNick); err != nil {
				h.log.Warn().Err(err).Msg("archive match failed")
			}
		}
		return
	}
}

// ---- Admin ----

func (h *Hub) onAdmin(c *Client, content string) {
	if h.cfg.AdminPassword == "" {
		c.enqueue(h, proto.Format(proto.RplNotice, "Admin commands are disabled on this server."))
		return
	}

	parts := strings.SplitN(content, " ", 3)
	if len(parts) < 2 {
		c.enqueue(h, proto.Format(proto.RplNotice, "Usage: A<password> <kick|ban|reload|motd> [args]"))
		return
	}

	password, cmd := parts[0], strings.ToLower(parts[1])
	args := ""
	if len(parts) > 2 {
		args = strings.TrimSpace(parts[2])
	}

	if !auth.Verify(h.cfg.AdminPassword, password) {
		c.enqueue(h, proto.Format(proto.RplNotice, "Invalid admin password."))
		h.log.Warn().Str("nick", c.Nick()).Str("ip", c.ip).Msg("failed admin attempt")
		return
	}

	switch cmd {
	case "kick":
		h.adminKick(c, args)
	case "ban":
		h.adminBan(c, args)
	case "reload":
		h.reloadFiles()
		c.enqueue(h, proto.Format(proto.RplNotice, "Reloaded ban list and MOTD."))
		h.log.Info().Str("nick", c.Nick()).Msg("admin reload")
	case "motd":
		h.motd = args
		c.enqueue(h, proto.Format(proto.RplNotice, "MOTD updated."))
	default:
		c.enqueue(h, proto.Format(proto.RplNotice, "Unknown command: "+cmd))
	}
}

func (h *Hub) adminKick(admin *Client, targetNick string) {
	target := h.clientByNick(targetNick)
	if target == nil {
		admin.enqueue(h, proto.Format(proto.RplNotice, "No such user: "+targetNick))
		return
	}
	target.enqueue(h, proto.Format(proto.RplNotice, "You have been kicked by an administrator."))
	target.conn.Close()
	h.metrics.KicksTotal++
	admin.enqueue(h, proto.Format(proto.RplNotice, "Kicked "+targetNick+"."))
	h.log.Info().Str("admin", admin.Nick()).Str("target", targetNick).Msg("admin kick")
}

func (h *Hub) adminBan(admin *Client, arg string) {
	ip := arg
	if target := h.clientByNick(arg); target != nil {
		ip = target.ip
		h.adminKick(admin, arg)
	}

	h.banned[ip] = struct{}{}
	h.metrics.BansTotal++

	if h.cfg.BanFile != "" {
		if err := store.AppendBan(h.cfg.BanFile, ip); err != nil {
			h.log.Warn().Err(err).Msg("could not write ban file")
		}
	}

	admin.enqueue(h, proto.Format(proto.RplNotice, "Banned "+ip+"."))
	h.log.Info().Str("admin", admin.Nick()).Str("ip", ip).Msg("admin ban")
}

// ---- Helpers ----

// broadcast delivers msg to every confirmed client except excludeID, and
// fans it out to dashboard taps. Taps that cannot keep up lose lines.
func (h *Hub) broadcast(msg string, excludeID uint64) {
	for _, c := range h.clients {
		if c.id != excludeID && c.Confirmed() {
			c.enqueue(h, msg)
		}
	}
	for tap := range h.taps {
		select {
		case tap <- msg:
		default:
		}
	}
}

func (h *Hub) clientByNick(nick string) *Client {
	id, ok := h.nicks[nick]
	if !ok {
		return nil
	}
	return h.clients[id]
}

// resolveNick finds the first free candidate: the base itself, then base_1,
// base_2, ... truncated so the result stays within the nick length cap. A
// nick under an unexpired reservation is skipped unless the requester's IP
// matches; an expired reservation is dropped and the nick treated as free.
func (h *Hub) resolveNick(base string, myID uint64, myIP string) string {
	for i := 0; ; i++ {
		candidate := base
		if i > 0 {
			suffix := fmt.Sprintf("_%d", i)
			if len(base)+len(suffix) > proto.MaxNickLen {
				candidate = base[:proto.MaxNickLen-len(suffix)] + suffix
			} else {
				candidate = base + suffix
			}
		}

		if existingID, taken := h.nicks[candidate]; taken && existingID != myID {
			continue
		}

		if res, ok := h.reserved[candidate]; ok {
			if time.Now().Before(res.expiry) {
				if myIP != "" && myIP != res.ip {
					continue
				}
			} else {
				delete(h.reserved, candidate)
			}
		}

		return candidate
	}
}

// ---- File-backed state ----

func (h *Hub) loadStats() store.Stats {
	if h.cfg.StatsFile == "" {
		return store.NewStats()
	}
	s, err := store.LoadStats(h.cfg.StatsFile)
	if err != nil {
		h.log.Warn().Err(err).Str("path", h.cfg.StatsFile).Msg("starting with fresh stats")
	}
	return s
}

func (h *Hub) saveStats() {
	if h.cfg.StatsFile == "" {
		return
	}
	if err := h.stats.Save(h.cfg.StatsFile); err != nil {
		h.log.Warn().Err(err).Msg("could not save stats")
	}
}

// reloadFiles re-reads the ban list and MOTD. Used at startup, on SIGHUP
// and for the admin reload command.
func (h *Hub) reloadFiles() {
	if h.cfg.BanFile != "" {
		bans, err := store.LoadBanList(h.cfg.BanFile)
		if err != nil {
			h.log.Warn().Err(err).Str("path", h.cfg.BanFile).Msg("could not read ban file")
		} else {
			h.banned = bans
			h.log.Info().Int("count", len(bans)).Msg("loaded banned IPs")
		}
	}

	motd, err := store.ReadMOTD(h.cfg.MOTDFile, h.cfg.MOTD)
	if err != nil {
		h.log.Warn().Err(err).Str("path", h.cfg.MOTDFile).Msg("could not read MOTD file")
	}
	h.motd = motd
}
