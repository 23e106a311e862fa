package ui

import (
	"context"
	"fmt"
	"net"

	"github.com/Yeicor/scene-ui/internal/remote"
)

// startRemote serves the debug panel over net/rpc. Requests are applied by the host loop (see Update).
func (s *Session) startRemote() error {
	l, err := net.Listen("tcp", s.remoteAddr)
	if err != nil {
		return fmt.Errorf("remote panel: %w", err)
	}
	s.remote = remote.NewPanelService()
	var ctx context.Context
	ctx, s.remoteCancel = context.WithCancel(context.Background())
	s.remoteBound = l.Addr().String()
	go remote.Serve(ctx, remote.NewPanelServer(s.remote), l)
	return nil
}

// RemoteAddr returns the address the remote panel listens on (empty if disabled).
func (s *Session) RemoteAddr() string {
	return s.remoteBound
}

// ApplyRemote runs the pending remote panel requests, returning how many there were. The ebiten loop does this on
// every update; headless hosts must call it themselves.
func (s *Session) ApplyRemote() int {
	if s.remote == nil || s.registry == nil {
		return 0
	}
	return s.remote.Apply(s.registry)
}

// PanelClient controls the debug panel of another process.
type PanelClient = remote.Client

// ControlState describes a remote control.
type ControlState = remote.ControlState

// DialPanel connects to the remote panel of a running session, retrying until ctx is done.
func DialPanel(ctx context.Context, addr string) (*PanelClient, error) {
	return remote.Dial(ctx, "tcp", addr)
}
