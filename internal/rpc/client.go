package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/picket-dev/picket/internal/types"
)

// ClientVersion is the version of this RPC client. It should match the pk
// CLI version for compatibility checks.
var ClientVersion = "0.0.0"

// Client is an RPC client connected to a running server.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// TryConnect attempts to connect to the server socket. Returns (nil, nil) if
// no server is reachable, so callers can fall back to direct storage.
func TryConnect(socketPath string) (*Client, error) {
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return nil, nil
	}

	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, nil
	}

	client := &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: 30 * time.Second,
	}

	health, err := client.Health()
	if err != nil {
		_ = conn.Close()
		return nil, nil
	}
	if health.Status != "healthy" {
		_ = conn.Close()
		return nil, nil
	}
	return client, nil
}

// Close closes the connection to the server
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SetTimeout sets the request timeout duration
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Execute sends an RPC request and waits for the response. A response with
// Success=false is returned along with an error carrying the server's
// message.
func (c *Client) Execute(operation string, args interface{}) (*Response, error) {
	req, err := NewRequest(operation, args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	if _, err := c.conn.Write(append(reqJSON, '\n')); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	respLine, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respLine, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !resp.Success {
		return &resp, fmt.Errorf("operation failed: %s", resp.Error)
	}
	return &resp, nil
}

// Health checks that the server is alive and reports its version.
func (c *Client) Health() (*HealthResponse, error) {
	resp, err := c.Execute(OpHealth, nil)
	if err != nil {
		return nil, err
	}
	var health HealthResponse
	if err := resp.UnmarshalData(&health); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health response: %w", err)
	}
	return &health, nil
}

// Create creates a new issue via the server
func (c *Client) Create(args *CreateArgs) (*types.Issue, error) {
	resp, err := c.Execute(OpCreate, args)
	if err != nil {
		return nil, err
	}
	var issue types.Issue
	if err := resp.UnmarshalData(&issue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issue: %w", err)
	}
	return &issue, nil
}

// List lists issues via the server
func (c *Client) List(args *ListArgs) ([]*types.Issue, error) {
	resp, err := c.Execute(OpList, args)
	if err != nil {
		return nil, err
	}
	var issues []*types.Issue
	if err := resp.UnmarshalData(&issues); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
	}
	return issues, nil
}

// Show retrieves an issue, optionally with its thread, via the server
func (c *Client) Show(args *ShowArgs) (*ShowResult, error) {
	resp, err := c.Execute(OpShow, args)
	if err != nil {
		return nil, err
	}
	var result ShowResult
	if err := resp.UnmarshalData(&result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal show result: %w", err)
	}
	return &result, nil
}

// Checkout claims an issue via the server
func (c *Client) Checkout(args *CheckoutArgs) error {
	_, err := c.Execute(OpCheckout, args)
	return err
}

// Release returns an issue to the pool via the server
func (c *Client) Release(args *ReleaseArgs) error {
	_, err := c.Execute(OpRelease, args)
	return err
}

// Comment appends a comment via the server
func (c *Client) Comment(args *CommentArgs) (*types.ThreadEntry, error) {
	resp, err := c.Execute(OpComment, args)
	if err != nil {
		return nil, err
	}
	var entry types.ThreadEntry
	if err := resp.UnmarshalData(&entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thread entry: %w", err)
	}
	return &entry, nil
}

// Status updates an issue's lifecycle status via the server
func (c *Client) Status(args *StatusArgs) error {
	_, err := c.Execute(OpStatus, args)
	return err
}

// Report submits an attempt report via the server
func (c *Client) Report(args *ReportArgs) error {
	_, err := c.Execute(OpReport, args)
	return err
}

// Stats retrieves aggregate statistics via the server
func (c *Client) Stats() (*types.Statistics, error) {
	resp, err := c.Execute(OpStats, nil)
	if err != nil {
		return nil, err
	}
	var stats types.Statistics
	if err := resp.UnmarshalData(&stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal statistics: %w", err)
	}
	return &stats, nil
}
