package daemon

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/motivehq/browserd/internal/protocol"
)

// maxRequestBytes caps one request line so a misbehaving client cannot grow
// the read buffer without bound.
const maxRequestBytes = 1 << 20

// acceptLoop serves connections until the listener closes. One connection is
// one request line and one response line.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || isClosedError(err) {
				return
			}
			s.logger.Printf("accept: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		return
	}

	line, err := bufio.NewReader(io.LimitReader(conn, maxRequestBytes)).ReadBytes('\n')
	if err != nil {
		if len(line) == 0 {
			// Timeouts and empty connections close silently.
			return
		}
		if len(line) == maxRequestBytes {
			s.writeResponse(conn, protocol.Errorf("request exceeds %d bytes", maxRequestBytes))
			return
		}
	}

	req, err := protocol.DecodeRequest(line)
	if err != nil {
		s.writeResponse(conn, protocol.Errorf("%v", err))
		return
	}

	resp := s.handleRequest(ctx, req)
	s.writeResponse(conn, resp)
}

func (s *Server) writeResponse(conn net.Conn, resp protocol.Response) {
	data, err := resp.Encode()
	if err != nil {
		s.logger.Printf("encode response: %v", err)
		data, _ = protocol.Errorf("internal error encoding response").Encode()
	}
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return
	}
	if _, err := conn.Write(data); err != nil && !isClosedError(err) {
		s.logger.Printf("write response: %v", err)
	}
}

func isClosedError(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrDeadlineExceeded)
}
