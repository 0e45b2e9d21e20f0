package connection

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeSocket serves the line protocol with canned replies per command.
func fakeSocket(t *testing.T, replies map[string]SocketReply) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ohcli")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					reply, ok := replies[scanner.Text()]
					if !ok {
						reply = SocketReply{Error: "unknown command: " + scanner.Text()}
					}
					json.NewEncoder(conn).Encode(reply)
				}
			}()
		}
	}()
	return path
}

func TestSocketClient_Close_NoConnection(t *testing.T) {
	if err := NewSocketClient("/tmp/nonexistent.sock").Close(); err != nil {
		t.Errorf("Close without connection should not error: %v", err)
	}
}

func TestSocketClient_Connect_NonexistentSocket(t *testing.T) {
	client := NewSocketClient(filepath.Join(t.TempDir(), "missing.sock"))
	if err := client.Connect(); err == nil {
		client.Close()
		t.Error("Connect to nonexistent socket should fail")
	}
}

func TestSocketClient_Execute(t *testing.T) {
	path := fakeSocket(t, map[string]SocketReply{
		"status":         {OK: true, Data: json.RawMessage(`{"objects":2}`)},
		"loglevel debug": {OK: true, Data: json.RawMessage(`{"level":"debug"}`)},
		"shutdown":       {OK: false, Error: "server is idle"},
	})

	client := NewSocketClient(path)
	defer client.Close()

	var status struct {
		Objects int `json:"objects"`
	}
	if err := client.Execute(&status, "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Objects != 2 {
		t.Errorf("objects = %d", status.Objects)
	}

	// Same connection is reused for the next command.
	var level map[string]string
	if err := client.Execute(&level, "loglevel", "debug"); err != nil {
		t.Fatalf("loglevel: %v", err)
	}
	if level["level"] != "debug" {
		t.Errorf("level = %v", level)
	}

	err := client.Execute(nil, "shutdown")
	if err == nil || err.Error() != "server is idle" {
		t.Errorf("shutdown error = %v", err)
	}
}

func TestSocketClient_RejectsMultiline(t *testing.T) {
	path := fakeSocket(t, nil)
	client := NewSocketClient(path)
	defer client.Close()

	err := client.Execute(nil, "loglevel", "debug\nshutdown")
	if err == nil || !strings.Contains(err.Error(), "single line") {
		t.Errorf("error = %v", err)
	}
}
