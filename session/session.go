package session

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"go_tftp/constants"
	"go_tftp/wire"
)

// ErrTimeout means the peer stopped talking before the transfer finished.
var ErrTimeout = errors.New("session: transfer timed out")

// RemoteError is an ERROR datagram received from the peer.
type RemoteError struct {
	Code    uint16
	Message string
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("session: remote error %d: %s", e.Code, e.Message)
}

// Config carries per-transfer tunables. Zero values fall back to the
// protocol defaults.
type Config struct {
	BlockSize      int
	ReceiveTimeout time.Duration
	Retransmit     []time.Duration
	FinalTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.BlockSize == 0 {
		c.BlockSize = constants.BLOCK_SIZE
	}
	if c.ReceiveTimeout == 0 {
		c.ReceiveTimeout = constants.RECEIVE_TIMEOUT
	}
	if c.Retransmit == nil {
		c.Retransmit = constants.RetransmitSchedule
	}
	if c.FinalTimeout == 0 {
		c.FinalTimeout = constants.FINAL_TIMEOUT
	}
	return c
}

// recv reads and decodes one datagram. Malformed traffic is reported to
// the caller together with the source address so it can be logged and
// skipped without ending the session.
func recv(conn *net.UDPConn, buf []byte, deadline time.Time) (wire.Datagram, *net.UDPAddr, error) {
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, err
	}
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	op, payload, err := wire.SplitOpcode(buf[:n])
	if err != nil {
		return nil, addr, err
	}
	dgram, err := wire.Create(op, payload)
	if err != nil {
		return nil, addr, err
	}
	return dgram, addr, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sameTID reports whether addr matches the transfer ID the session is
// locked onto.
func sameTID(remote, addr *net.UDPAddr) bool {
	return addr.Port == remote.Port && addr.IP.Equal(remote.IP)
}

// rejectTID answers traffic from a foreign transfer ID without touching
// session state.
func rejectTID(conn *net.UDPConn, addr *net.UDPAddr, logger zerolog.Logger) {
	logger.Warn().Stringer("from", addr).Msg("datagram from foreign transfer id")
	unknown, _ := wire.ErrorFromCode(wire.ERR_TID_UNKNOWN, "")
	conn.WriteToUDP(unknown.Bytes(), addr)
}

func sendError(conn *net.UDPConn, remote *net.UDPAddr, code uint16, message string) {
	dgram, err := wire.ErrorFromCode(code, message)
	if err != nil {
		return
	}
	conn.WriteToUDP(dgram.Bytes(), remote)
}
