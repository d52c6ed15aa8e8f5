package transport

import (
	"bufio"
	"context"
	"net"
	"sync"

	"go.uber.org/zap"
)

// session is one connected control client: inbound line scanner,
// dispatch into the command registry, and a back-pressured outbound
// writer (spec §4.8's per-session state: inbound buffer, outbound
// queued lines, 1 MiB back-pressure cap).
type session struct {
	nc      net.Conn
	ver     Version
	disp    Dispatcher
	compact bool
	log     *zap.Logger

	mu       sync.Mutex
	outQueue [][]byte
	outBytes int
	outCh    chan struct{} // signals writeLoop that outQueue has new data; never closed
	done     chan struct{} // closed exactly once, by close()
	closed   bool
}

func newSession(nc net.Conn, ver Version, disp Dispatcher, compact bool, log *zap.Logger) *session {
	return &session{nc: nc, ver: ver, disp: disp, compact: compact, log: log, outCh: make(chan struct{}, 1), done: make(chan struct{})}
}

func (s *session) run(ctx context.Context) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()

	if s.compact {
		s.enqueueRaw([]byte(s.ver.compactGreetingLine() + "\n"))
	} else {
		line, err := s.ver.jsonGreetingLine()
		if err != nil {
			s.close()
			return
		}
		s.enqueueRaw(append(line, '\n'))
	}

	sc := newScanner(s.nc)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			s.close()
			return
		default:
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		s.handleLine(cp)
		if s.isClosed() {
			break
		}
	}
	if err := sc.Err(); err != nil {
		if err == bufio.ErrTooLong {
			s.log.Warn("transport: session line exceeded inbound cap, dropping")
		} else {
			s.log.Debug("transport: scanner error", zap.Error(err))
		}
	}
	s.close()
	<-writerDone
}

func (s *session) handleLine(line []byte) {
	if s.compact {
		req, err := decodeCompact(line)
		if err != nil {
			s.enqueueRaw([]byte("ERROR malformed request\n"))
			return
		}
		resp := s.disp.Exec(req)
		s.enqueueRaw([]byte(encodeCompact(resp) + "\n"))
		return
	}

	req, err := decodeRequest(line)
	if err != nil {
		s.log.Debug("transport: malformed request", zap.Error(err))
		s.close()
		return
	}
	resp := s.disp.Exec(req)
	encoded, err := resp.encodeJSON()
	if err != nil {
		s.log.Warn("transport: failed to encode response", zap.Error(err))
		return
	}
	s.enqueueRaw(append(encoded, '\n'))
}

// enqueueRaw appends a pre-framed line to the outbound queue, dropping
// the session if the 1 MiB cap would be exceeded (spec §4.8/§9(a)).
func (s *session) enqueueRaw(line []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.outBytes+len(line) > outboundCap {
		s.mu.Unlock()
		s.log.Warn("transport: outbound queue exceeded cap, dropping session")
		s.close()
		return
	}
	s.outQueue = append(s.outQueue, line)
	s.outBytes += len(line)
	s.mu.Unlock()

	select {
	case s.outCh <- struct{}{}:
	default:
	}
}

func (s *session) writeLoop() {
	for {
		s.mu.Lock()
		batch := s.outQueue
		s.outQueue = nil
		s.outBytes = 0
		closedNow := s.closed
		s.mu.Unlock()

		for _, line := range batch {
			if _, err := s.nc.Write(line); err != nil {
				s.close()
				return
			}
		}

		if len(batch) > 0 {
			continue // re-check for more queued work before blocking
		}
		if closedNow {
			return
		}
		select {
		case <-s.outCh:
		case <-s.done:
			// Drain whatever was queued right before close, then exit.
			s.mu.Lock()
			final := s.outQueue
			s.outQueue = nil
			s.mu.Unlock()
			for _, line := range final {
				if _, err := s.nc.Write(line); err != nil {
					break
				}
			}
			return
		}
	}
}

func (s *session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
	_ = s.nc.Close()
}
