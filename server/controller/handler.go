package controller

import (
	"errors"
	"fmt"
	"net"

	"go_tftp/constants"
	"go_tftp/fileio"
	"go_tftp/netascii"
	"go_tftp/session"
	"go_tftp/wire"
)

func (s *Server) handleRead(listener *net.UDPConn, remote *net.UDPAddr, rq *wire.ReadRequest) {
	logger := s.logger.With().Stringer("remote", remote).Str("file", rq.Filename).Logger()
	logger.Info().Stringer("request", rq).Msg("read request")

	reader, err := s.backend.OpenRead(rq.Filename)
	if err != nil {
		logger.Warn().Err(err).Msg("read request refused")
		s.reply(listener, remote, errorReply(err))
		return
	}
	wrapped, ok := wrapReader(reader, rq.Mode)
	if !ok {
		reader.Close()
		s.reply(listener, remote, unknownModeReply(rq.Mode))
		return
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: listenIP(listener)})
	if err != nil {
		logger.Error().Err(err).Msg("could not open session socket")
		reader.Close()
		s.reply(listener, remote, errorReply(err))
		return
	}
	go func() {
		defer conn.Close()
		if err := session.Read(conn, remote, wrapped, false, s.cfg, logger); err != nil {
			logger.Warn().Err(err).Msg("read transfer failed")
		}
	}()
}

func (s *Server) handleWrite(listener *net.UDPConn, remote *net.UDPAddr, rq *wire.WriteRequest) {
	logger := s.logger.With().Stringer("remote", remote).Str("file", rq.Filename).Logger()
	logger.Info().Stringer("request", rq).Msg("write request")

	writer, err := s.backend.OpenWrite(rq.Filename)
	if err != nil {
		logger.Warn().Err(err).Msg("write request refused")
		s.reply(listener, remote, errorReply(err))
		return
	}
	wrapped, ok := wrapWriter(writer, rq.Mode)
	if !ok {
		writer.Cancel()
		s.reply(listener, remote, unknownModeReply(rq.Mode))
		return
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: listenIP(listener)})
	if err != nil {
		logger.Error().Err(err).Msg("could not open session socket")
		writer.Cancel()
		s.reply(listener, remote, errorReply(err))
		return
	}
	go func() {
		defer conn.Close()
		if err := session.Write(conn, remote, wrapped, true, s.cfg, logger); err != nil {
			logger.Warn().Err(err).Msg("write transfer failed")
		}
	}()
}

func (s *Server) reply(conn *net.UDPConn, remote *net.UDPAddr, dgram wire.Datagram) {
	if _, err := conn.WriteToUDP(dgram.Bytes(), remote); err != nil {
		s.logger.Warn().Err(err).Stringer("remote", remote).Msg("could not send reply")
	}
}

// errorReply maps backend failures onto the standard TFTP error codes.
func errorReply(err error) *wire.Error {
	var (
		violation fileio.AccessViolationError
		notFound  fileio.FileNotFoundError
		exists    fileio.FileExistsError
	)
	switch {
	case errors.As(err, &violation):
		return mustError(wire.ERR_ACCESS_VIOLATION, "")
	case errors.As(err, &notFound):
		return mustError(wire.ERR_FILE_NOT_FOUND, "")
	case errors.As(err, &exists):
		return mustError(wire.ERR_FILE_EXISTS, "")
	case errors.Is(err, fileio.ErrUnsupported):
		return mustError(wire.ERR_NOT_DEFINED, "Operation not supported")
	default:
		return mustError(wire.ERR_NOT_DEFINED, err.Error())
	}
}

func unknownModeReply(mode string) *wire.Error {
	return mustError(wire.ERR_ILLEGAL_OP,
		fmt.Sprintf("Unknown transfer mode %s, expected 'netascii' or 'octet'", mode))
}

func mustError(code uint16, message string) *wire.Error {
	dgram, err := wire.ErrorFromCode(code, message)
	if err != nil {
		panic(err)
	}
	return dgram
}

func wrapReader(r fileio.Reader, mode string) (fileio.Reader, bool) {
	switch mode {
	case constants.MODE_OCTET:
		return r, true
	case constants.MODE_NETASCII:
		return netascii.NewReader(r), true
	default:
		return nil, false
	}
}

func wrapWriter(w fileio.Writer, mode string) (fileio.Writer, bool) {
	switch mode {
	case constants.MODE_OCTET:
		return w, true
	case constants.MODE_NETASCII:
		return netascii.NewWriter(w), true
	default:
		return nil, false
	}
}

// listenIP pins session sockets to the same address family and interface
// as the main listener, leaving the port ephemeral.
func listenIP(listener *net.UDPConn) net.IP {
	addr, ok := listener.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.IsUnspecified() {
		return nil
	}
	return addr.IP
}
