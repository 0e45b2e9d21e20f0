package connection

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// SocketReply mirrors one reply line from the local socket.
type SocketReply struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// SocketClient provides Unix socket communication for local management.
type SocketClient struct {
	path    string
	timeout time.Duration
	conn    net.Conn
	reader  *bufio.Reader
}

// NewSocketClient creates a new socket client.
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{path: socketPath, timeout: DefaultTimeout}
}

// Path returns the socket path.
func (c *SocketClient) Path() string {
	return c.path
}

// Connect connects to the local socket.
func (c *SocketClient) Connect() error {
	conn, err := net.DialTimeout("unix", c.path, 5*time.Second)
	if err != nil {
		return err
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// Close closes the socket connection.
func (c *SocketClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.reader = nil, nil
	return err
}

// Execute sends one command line and decodes the reply data into out
// when out is non-nil. A reply with ok=false becomes an error.
func (c *SocketClient) Execute(out any, cmd string, args ...string) error {
	if c.conn == nil {
		if err := c.Connect(); err != nil {
			return err
		}
	}

	line := strings.Join(append([]string{cmd}, args...), " ")
	if strings.ContainsAny(line, "\r\n") {
		return errors.New("command must be a single line")
	}

	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return err
	}

	raw, err := c.reader.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	var reply SocketReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("parse reply: %w", err)
	}
	if !reply.OK {
		if out != nil && len(reply.Data) > 0 {
			_ = json.Unmarshal(reply.Data, out)
		}
		return errors.New(reply.Error)
	}
	if out != nil && len(reply.Data) > 0 {
		if err := json.Unmarshal(reply.Data, out); err != nil {
			return fmt.Errorf("parse reply data: %w", err)
		}
	}
	return nil
}
