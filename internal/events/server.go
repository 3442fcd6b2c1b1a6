// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/palate/internal/config"
)

const (
	serverName      = "palate-events"
	serverReadyWait = 30 * time.Second
	maxPayloadBytes = 8 * 1024 * 1024
)

// EmbeddedServer wraps an in-process NATS JetStream server, giving
// single-binary deployments a durable bus without an external
// dependency. It listens on the host and port of NATS_URL so chat
// clients outside the process can reach the same subjects.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server with
// JetStream enabled. Returns an error if the server is not ready for
// connections within 30 seconds.
func NewEmbeddedServer(cfg *config.NATSConfig) (*EmbeddedServer, error) {
	host, port := listenAddr(cfg.URL)

	opts := &server.Options{
		ServerName:         serverName,
		Host:               host,
		Port:               port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		Debug:              false,
		Trace:              false,
		NoLog:              false,
		MaxPayload:         maxPayloadBytes,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	ns.ConfigureLogger()

	go ns.Start()

	if !ns.ReadyForConnections(serverReadyWait) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %s", serverReadyWait)
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits for in-flight messages to drain
// or the context to expire.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning reports server health.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// listenAddr extracts the bind host and port from a NATS URL, falling
// back to localhost:4222 for anything unparseable.
func listenAddr(rawURL string) (string, int) {
	const (
		defaultHost = "127.0.0.1"
		defaultPort = 4222
	)

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return defaultHost, defaultPort
	}

	host := u.Hostname()
	if host == "" {
		host = defaultHost
	}

	port := defaultPort
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			port = n
		}
	}

	return host, port
}
