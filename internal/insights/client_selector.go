package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoClients is returned when the selector has no generators.
var ErrNoClients = errors.New("no model clients available")

// ClientSelector manages round-robin selection and failover across generators,
// one per API key.
type ClientSelector struct {
	clients      []Generator
	currentIndex int
	mutex        sync.Mutex
	logger       *slog.Logger
}

// NewClientSelector creates a new client selector with round-robin support
func NewClientSelector(clients []Generator, logger *slog.Logger) *ClientSelector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientSelector{
		clients: clients,
		logger:  logger.With(slog.String("component", "client_selector")),
	}
}

// NextClient returns the next client in round-robin order
func (s *ClientSelector) NextClient() (Generator, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.clients) == 0 {
		return nil, -1
	}

	client := s.clients[s.currentIndex]
	index := s.currentIndex
	s.currentIndex = (s.currentIndex + 1) % len(s.clients)

	return client, index
}

// ClientCount returns total number of clients
func (s *ClientSelector) ClientCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.clients)
}

// TryAllClients attempts the operation with every client until one succeeds.
// A cancelled context stops the failover.
func (s *ClientSelector) TryAllClients(ctx context.Context, operation func(Generator, int) error) error {
	clientCount := s.ClientCount()
	if clientCount == 0 {
		return ErrNoClients
	}

	var lastErr error
	for attempt := 0; attempt < clientCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		client, clientIdx := s.NextClient()
		err := operation(client, clientIdx)
		if err == nil {
			s.logger.DebugContext(ctx, "model request succeeded",
				slog.Int("client_index", clientIdx),
				slog.Int("attempt", attempt+1),
			)
			return nil
		}

		lastErr = err
		s.logger.WarnContext(ctx, "model request failed, trying next client",
			slog.Int("client_index", clientIdx),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	return fmt.Errorf("all %d model clients failed, last error: %w", clientCount, lastErr)
}
