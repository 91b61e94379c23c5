package controller

import (
	"net"

	"github.com/rs/zerolog"

	"go_tftp/constants"
	"go_tftp/fileio"
	"go_tftp/session"
	"go_tftp/wire"
)

// Server answers read and write requests on the main TFTP port and moves
// each accepted transfer onto its own ephemeral socket.
type Server struct {
	backend fileio.Backend
	cfg     session.Config
	logger  zerolog.Logger
}

func New(backend fileio.Backend, cfg session.Config, logger zerolog.Logger) *Server {
	return &Server{backend: backend, cfg: cfg, logger: logger}
}

// ListenAndServe binds the listening socket and serves until the socket
// fails.
func (s *Server) ListenAndServe(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	return s.Serve(conn)
}

// Serve dispatches datagrams arriving on conn until conn is closed.
func (s *Server) Serve(conn *net.UDPConn) error {
	s.logger.Info().Stringer("listen", conn.LocalAddr()).Msg("tftp listener started")

	buf := make([]byte, constants.MAX_DATAGRAM_SIZE)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return err
		}
		op, payload, err := wire.SplitOpcode(buf[:n])
		if err != nil {
			s.logger.Warn().Err(err).Stringer("remote", addr).Msg("dropping short datagram")
			continue
		}
		dgram, err := wire.Create(op, payload)
		if err != nil {
			s.logger.Warn().Err(err).Stringer("remote", addr).Msg("dropping undecodable datagram")
			continue
		}

		switch rq := dgram.(type) {
		case *wire.ReadRequest:
			s.handleRead(conn, addr, rq)
		case *wire.WriteRequest:
			s.handleWrite(conn, addr, rq)
		default:
			// Session traffic belongs on the session sockets, not here.
			s.logger.Debug().Uint16("opcode", dgram.Opcode()).Stringer("remote", addr).Msg("ignoring non-request datagram")
		}
	}
}
