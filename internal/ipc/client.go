package ipc

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/motivehq/browserd/internal/protocol"
)

const dialTimeout = 2 * time.Second

// Send delivers a single request over the daemon socket and waits for the
// single-line response. Each call is one connection.
func Send(socketPath string, req *protocol.Request, timeout time.Duration) (protocol.Response, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()

	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	line, err := req.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := conn.Write(line); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	reader := bufio.NewReaderSize(conn, 1<<20)
	resp, err := reader.ReadBytes('\n')
	if err != nil && len(resp) == 0 {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return protocol.DecodeResponse(resp)
}

// Ping checks whether a live daemon answers on the socket.
func Ping(socketPath string) bool {
	resp, err := Send(socketPath, &protocol.Request{Command: protocol.CmdPing}, 3*time.Second)
	if err != nil {
		return false
	}
	ok, _ := resp["success"].(bool)
	return ok
}
