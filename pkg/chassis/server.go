// Package chassis serves the API over TLS on one port with two listeners:
//
//   - TCP: HTTP/1.1 and HTTP/2
//   - UDP: QUIC, demultiplexed by ALPN into HTTP/3 ("h3") and MCP
//     ("templater-mcp-v1", newline-delimited JSON-RPC on one stream)
//
// HTTP responses advertise HTTP/3 with an Alt-Svc header.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/sync/errgroup"
)

// Config holds the chassis settings.
type Config struct {
	Addr      string // TCP and UDP, same port
	CertFile  string // empty with KeyFile: self-signed
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	Logger    *slog.Logger
}

// Server is the dual-transport server.
type Server struct {
	cfg    Config
	tls    *tls.Config
	logger *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	tlsCfg, selfSigned, err := TLSConfig(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	if selfSigned {
		cfg.Logger.Warn("TLS: self-signed dev certificate")
	}
	return &Server{cfg: cfg, tls: tlsCfg, logger: cfg.Logger}, nil
}

func quicConfig() *quic.Config {
	return &quic.Config{
		MaxStreamReceiveWindow:     4 << 20,
		MaxConnectionReceiveWindow: 16 << 20,
		MaxIdleTimeout:             5 * time.Minute,
		KeepAlivePeriod:            30 * time.Second,
	}
}

// Run serves until ctx is done, then shuts both listeners down.
func (s *Server) Run(ctx context.Context) error {
	handler := altSvc(s.cfg.Addr, nosniff(s.cfg.Handler))

	tcpTLS := s.tls.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	tcpLn, err := tls.Listen("tcp", s.cfg.Addr, tcpTLS)
	if err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}
	quicLn, err := quic.ListenAddr(s.cfg.Addr, s.tls, quicConfig())
	if err != nil {
		tcpLn.Close()
		return fmt.Errorf("QUIC listen: %w", err)
	}

	tcpSrv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	h3Srv := &http3.Server{Handler: handler}
	var mcpH *mcpHandler
	if s.cfg.MCPServer != nil {
		mcpH = &mcpHandler{srv: s.cfg.MCPServer, logger: s.logger}
	}

	s.logger.Info("chassis listening", "addr", s.cfg.Addr,
		"tcp", "HTTP/1.1+HTTP/2", "udp", "HTTP/3+MCP", "mcp", mcpH != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := tcpSrv.Serve(tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("TCP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		for {
			conn, err := quicLn.Accept(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("QUIC accept: %w", err)
			}
			s.dispatch(gctx, conn, h3Srv, mcpH)
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("chassis stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(
			tcpSrv.Shutdown(shutdownCtx),
			h3Srv.Close(),
			quicLn.Close(),
		)
	})
	return g.Wait()
}

func (s *Server) dispatch(ctx context.Context, conn *quic.Conn, h3 *http3.Server, mcpH *mcpHandler) {
	switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; {
	case alpn == ALPNHTTP3:
		go func() {
			if err := h3.ServeQUICConn(conn); err != nil {
				s.logger.Debug("HTTP/3 conn done", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	case alpn == ALPNMCP && mcpH != nil:
		go mcpH.serveConn(ctx, conn)
	default:
		s.logger.Warn("unsupported ALPN, closing", "alpn", alpn, "remote", conn.RemoteAddr())
		conn.CloseWithError(connErrALPN, "unsupported ALPN: "+alpn)
	}
}

func nosniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// altSvc advertises HTTP/3 on the port of addr.
func altSvc(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		port = "443"
	}
	value := fmt.Sprintf(`h3=":%s"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", value)
		next.ServeHTTP(w, r)
	})
}
