// Package tcp accepts chat connections and hands them to the hub. It never
// blocks on hub capacity: a full event queue rejects the connection here.
package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openmortal/mortalnet/internal/config"
	"github.com/openmortal/mortalnet/internal/core"
	"github.com/openmortal/mortalnet/internal/proto"
)

// Server is the chat connection acceptor.
type Server struct {
	cfg *config.Config
	hub *core.Hub
	log *zerolog.Logger

	ln net.Listener
	wg sync.WaitGroup
}

// NewServer builds an acceptor for the hub.
func NewServer(cfg *config.Config, hub *core.Hub, logger *zerolog.Logger) *Server {
	return &Server{cfg: cfg, hub: hub, log: logger}
}

// Listen binds the chat address (with TLS when configured) and starts the
// accept loop. It returns once the listener is bound; the loop runs until
// ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	var (
		ln  net.Listener
		err error
	)
	if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
		cert, certErr := tls.LoadX509KeyPair(s.cfg.TLSCert, s.cfg.TLSKey)
		if certErr != nil {
			return fmt.Errorf("load TLS keypair: %w", certErr)
		}
		ln, err = tls.Listen("tcp", s.cfg.ChatAddr, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err == nil {
			s.log.Info().Msg("TLS enabled on chat listener")
		}
	} else {
		ln, err = net.Listen("tcp", s.cfg.ChatAddr)
	}
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ChatAddr, err)
	}
	s.ln = ln
	s.log.Info().Stringer("addr", ln.Addr()).Msg("chat server listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()

	return nil
}

// Addr returns the bound listener address, for tests that listen on :0.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Wait blocks until the accept loop has exited.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				s.log.Error().Err(err).Msg("accept error")
				continue
			}
		}

		ip, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
		c := core.NewClient(conn, ip)

		if !s.hub.TryJoin(c) {
			s.log.Warn().Str("ip", ip).Msg("hub event queue full, rejecting")
			go func() {
				conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				fmt.Fprint(conn, proto.Format(proto.RplNotice, "Server busy. Try again later."))
				conn.Close()
			}()
		}
	}
}
