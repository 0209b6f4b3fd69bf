package ipc

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motivehq/browserd/internal/protocol"
)

func TestRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.json")

	_, err := ReadRecord(path)
	assert.Error(t, err)

	rec := DaemonRecord{
		PID:        4321,
		SocketPath: "/tmp/browserd.sock",
		LockPath:   "/tmp/browserd.lock",
		StartedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, WriteRecord(path, rec))

	got, err := ReadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	RemoveRecord(path)
	_, err = ReadRecord(path)
	assert.Error(t, err)

	// Double remove is fine.
	RemoveRecord(path)
}

func TestLockExclusivity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")

	first, err := Acquire(path)
	require.NoError(t, err)

	_, err = Acquire(path)
	assert.ErrorIs(t, err, ErrAlreadyLocked)

	require.NoError(t, first.Release())

	second, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestSend(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "test.sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadBytes('\n')
		req, err := protocol.DecodeRequest(line)
		if err != nil {
			return
		}
		var resp protocol.Response
		if req.Command == protocol.CmdPing {
			resp = protocol.OK(map[string]any{"message": "pong"})
		} else {
			resp = protocol.Errorf("Unknown command: %s", req.Command)
		}
		out, _ := resp.Encode()
		conn.Write(out)
	}()

	resp, err := Send(sock, &protocol.Request{Command: protocol.CmdPing}, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "pong", resp["message"])
}

func TestSend_NoDaemon(t *testing.T) {
	_, err := Send(filepath.Join(t.TempDir(), "absent.sock"), &protocol.Request{Command: protocol.CmdPing}, time.Second)
	assert.Error(t, err)
	assert.False(t, Ping(filepath.Join(t.TempDir(), "absent.sock")))
}
