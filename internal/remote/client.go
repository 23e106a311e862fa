package remote

import (
	"context"
	"log"
	"net"
	"net/rpc"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client calls a remote PanelService.
type Client struct {
	cl *rpc.Client
}

// NewClient wraps an established connection.
func NewClient(client *rpc.Client) *Client {
	return &Client{cl: client}
}

// Dial connects to a panel server, retrying with exponential backoff until ctx is done (the session may still be
// starting up).
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var cl *rpc.Client
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 0 // Until ctx is done
	err := backoff.RetryNotify(func() error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return err
		}
		cl = rpc.NewClient(conn)
		return nil
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Println("[Remote] Panel not reachable yet, retrying in", next.Round(time.Millisecond), "-", err)
	})
	if err != nil {
		return nil, err
	}
	return NewClient(cl), nil
}

// List returns every control of the remote panel.
func (c *Client) List() ([]ControlState, error) {
	var out []ControlState
	err := c.cl.Call("PanelService.List", 0, &out)
	return out, err
}

// Set assigns a value (as text) to the control at path and returns its new state.
func (c *Client) Set(path, value string) (ControlState, error) {
	var out ControlState
	err := c.cl.Call("PanelService.Set", SetArgs{Path: path, Value: value}, &out)
	return out, err
}

// Revert restores every remote control to its initial value.
func (c *Client) Revert() error {
	var out int
	return c.cl.Call("PanelService.Revert", 0, &out)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.cl.Close()
}
