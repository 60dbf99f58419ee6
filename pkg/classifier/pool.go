package classifier

import (
	"context"
	"errors"
)

// pool hands each Detect call an idle connection, so frames from different
// sessions only wait on each other when every connection is busy.
type pool struct {
	clients []*webSocketClient
	idle    chan *webSocketClient
}

func newPool(clients []*webSocketClient) *pool {
	p := &pool{
		clients: clients,
		idle:    make(chan *webSocketClient, len(clients)),
	}
	for _, c := range clients {
		p.idle <- c
	}
	return p
}

func (p *pool) Detect(ctx context.Context, frame []byte) (*Result, error) {
	var client *webSocketClient
	select {
	case client = <-p.idle:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { p.idle <- client }()

	return client.Detect(ctx, frame)
}

// IsConnected reports whether at least one connection is up.
func (p *pool) IsConnected() bool {
	for _, c := range p.clients {
		if c.IsConnected() {
			return true
		}
	}
	return false
}

func (p *pool) Reconnect() error {
	var errs []error
	for _, c := range p.clients {
		if err := c.Reconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *pool) Close() {
	for _, c := range p.clients {
		c.Close()
	}
}
