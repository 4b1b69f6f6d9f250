package chassis

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hazyhaar/touchstone-templates/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
)

// MagicBytes open every MCP stream, after ALPN has selected ALPNMCP.
const MagicBytes = "MCP1"

// MaxMessageSize bounds one JSON-RPC line.
const MaxMessageSize = 1 << 20

const (
	streamErrProtocol quic.StreamErrorCode      = 0x02
	connErrALPN       quic.ApplicationErrorCode = 0x01
	connErrProtocol   quic.ApplicationErrorCode = 0x03
)

var ErrBadMagic = errors.New("invalid magic bytes: expected " + MagicBytes)

// readMagic consumes and checks the stream preamble.
func readMagic(r io.Reader) error {
	got := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, got); err != nil {
		return fmt.Errorf("read magic bytes: %w", err)
	}
	if !bytes.Equal(got, []byte(MagicBytes)) {
		return fmt.Errorf("%w: got %q", ErrBadMagic, got)
	}
	return nil
}

// mcpHandler serves one MCP session per QUIC connection, on its first
// bidirectional stream, as newline-delimited JSON-RPC.
type mcpHandler struct {
	srv    *server.MCPServer
	logger *slog.Logger
}

func (h *mcpHandler) serveConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		h.logger.Warn("mcp accept stream", "remote", remote, "error", err)
		conn.CloseWithError(connErrProtocol, "stream accept failed")
		return
	}
	if err := readMagic(stream); err != nil {
		h.logger.Warn("mcp preamble", "remote", remote, "error", err)
		stream.CancelWrite(streamErrProtocol)
		stream.CancelRead(streamErrProtocol)
		conn.CloseWithError(connErrProtocol, "invalid magic bytes")
		return
	}

	sess := newSession("quic_"+kit.NewRequestID()[:8], stream)
	if err := h.srv.RegisterSession(ctx, sess); err != nil {
		h.logger.Error("mcp register session", "session", sess.id, "error", err)
		stream.Close()
		return
	}
	defer h.srv.UnregisterSession(ctx, sess.id)
	h.logger.Info("mcp session started", "session", sess.id, "remote", remote)

	ctx = kit.WithTransport(ctx, "mcp_quic")
	ctx = h.srv.WithContext(ctx, sess)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.pumpNotifications(ctx)

	h.serveStream(ctx, sess, stream)
	h.logger.Info("mcp session ended", "session", sess.id, "remote", remote)
}

// serveStream answers requests read from r until EOF or a write failure.
func (h *mcpHandler) serveStream(ctx context.Context, sess *session, r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		resp := h.srv.HandleMessage(ctx, json.RawMessage(line))
		if resp == nil {
			continue
		}
		if err := sess.writeJSON(resp); err != nil {
			h.logger.Warn("mcp write", "session", sess.id, "error", err)
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		h.logger.Warn("mcp read", "session", sess.id, "error", err)
	}
}

// session implements server.ClientSession over one stream.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool

	mu sync.Mutex // serializes writes
	w  io.Writer
}

func newSession(id string, w io.Writer) *session {
	return &session{
		id:            id,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		w:             w,
	}
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

func (s *session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(data, '\n'))
	return err
}

func (s *session) pumpNotifications(ctx context.Context) {
	for {
		select {
		case n := <-s.notifications:
			_ = s.writeJSON(n)
		case <-ctx.Done():
			return
		}
	}
}
