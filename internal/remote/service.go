// Package remote exposes the debug panel of a running session over Go's net/rpc, so that values can be listed and
// tweaked from another process (a script, a test or a second terminal).
//
//goland:noinspection GoDeprecation
package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/rpc"
	"strconv"
	"sync"
	"time"

	"github.com/Yeicor/scene-ui/internal/panel"
)

var (
	ErrClosed   = errors.New("remote: panel service closed")
	ErrTimeout  = errors.New("remote: the host loop did not pick up the request in time")
	ErrNotFound = errors.New("remote: no such control")
)

// ControlState is an internal struct that has to be exported for RPC.
// It is the wire form of a panel control.
type ControlState struct {
	Path           string
	Kind           string
	Value          string // As displayed
	Min, Max, Step float64
	Choices        []string
}

// SetArgs is an internal struct that has to be exported for RPC.
type SetArgs struct {
	Path  string
	Value string // Parsed according to the kind of the control (number, bool or choice label)
}

type request struct {
	apply func(reg *panel.Registry) error
	reply chan error
}

// PanelService is an internal struct that has to be exported for RPC.
// Requests are queued until the host goroutine calls Apply, so remote edits never race with rendering.
type PanelService struct {
	requests  chan request
	closed    chan struct{}
	closeOnce sync.Once
	Timeout   time.Duration // How long a request waits for the host loop
}

// NewPanelService see PanelService
func NewPanelService() *PanelService {
	return &PanelService{
		requests: make(chan request),
		closed:   make(chan struct{}),
		Timeout:  5 * time.Second,
	}
}

// NewPanelServer registers svc on a new RPC server.
func NewPanelServer(svc *PanelService) *rpc.Server {
	server := rpc.NewServer()
	if err := server.Register(svc); err != nil {
		panic(err) // Shouldn't happen (only on bad implementation)
	}
	return server
}

// Serve accepts connections on l until ctx is cancelled.
func Serve(ctx context.Context, server *rpc.Server, l net.Listener) {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	log.Println("[Remote] Serving panel on", l.Addr())
	server.Accept(l) // Returns once the listener is closed
}

// List is an internal method that has to be exported for RPC.
// List returns every control in display order.
func (s *PanelService) List(_ int, out *[]ControlState) error {
	return s.do(func(reg *panel.Registry) error {
		controls := reg.Controls()
		res := make([]ControlState, 0, len(controls))
		for _, c := range controls {
			res = append(res, State(c))
		}
		*out = res
		return nil
	})
}

// Set is an internal method that has to be exported for RPC.
// Set assigns a value to the control at args.Path (the last one registered, if duplicated).
func (s *PanelService) Set(args SetArgs, out *ControlState) error {
	return s.do(func(reg *panel.Registry) error {
		c := reg.Find(args.Path)
		if c == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, args.Path)
		}
		if err := SetText(c, args.Value); err != nil {
			return err
		}
		*out = State(c)
		return nil
	})
}

// Revert is an internal method that has to be exported for RPC.
// Revert restores every control to its value at bind time.
func (s *PanelService) Revert(_ int, _ *int) error {
	return s.do(func(reg *panel.Registry) error {
		reg.Revert()
		return nil
	})
}

func (s *PanelService) do(apply func(reg *panel.Registry) error) error {
	req := request{apply: apply, reply: make(chan error, 1)}
	timeout := time.After(s.Timeout)
	select {
	case s.requests <- req:
	case <-s.closed:
		return ErrClosed
	case <-timeout:
		return ErrTimeout
	}
	select { // Once picked up, the request always completes
	case err := <-req.reply:
		return err
	case <-s.closed:
		return ErrClosed
	}
}

// Apply runs every pending request against reg and returns how many there were. It never blocks, and must be
// called from the goroutine that owns the registry.
func (s *PanelService) Apply(reg *panel.Registry) int {
	n := 0
	for {
		select {
		case req := <-s.requests:
			req.reply <- req.apply(reg)
			n++
		default:
			return n
		}
	}
}

// Close rejects pending and future requests.
func (s *PanelService) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// State converts a control to its wire form.
func State(c *panel.Control) ControlState {
	lo, hi, step := c.Range()
	return ControlState{
		Path:    c.Path(),
		Kind:    c.Kind().String(),
		Value:   c.String(),
		Min:     lo,
		Max:     hi,
		Step:    step,
		Choices: c.Labels(),
	}
}

// SetText parses text according to the kind of c and assigns it.
func SetText(c *panel.Control, text string) error {
	switch c.Kind() {
	case panel.KindNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", panel.ErrValue, text)
		}
		return c.Set(f)
	case panel.KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("%w: %q is not a boolean", panel.ErrValue, text)
		}
		return c.Set(b)
	default:
		return c.Select(text)
	}
}
