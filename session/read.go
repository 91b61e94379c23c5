package session

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"go_tftp/constants"
	"go_tftp/fileio"
	"go_tftp/wire"
)

// Read runs the sending side of a transfer: blocks are read from r and
// sent as DATA datagrams, each one retransmitted on the configured
// schedule until the peer acknowledges it. awaitFirstAck makes the
// session wait for an ACK of block zero before sending anything, which
// is how a client starts pushing after a write request; a nil remote
// locks onto the transfer ID that ACK arrives from.
func Read(conn *net.UDPConn, remote *net.UDPAddr, r fileio.Reader, awaitFirstAck bool, cfg Config, logger zerolog.Logger) error {
	cfg = cfg.withDefaults()
	logger = logger.With().Str("session", "read").Logger()
	logger.Info().Stringer("local", conn.LocalAddr()).Msg("read session started")

	buf := make([]byte, constants.MAX_DATAGRAM_SIZE)
	if awaitFirstAck {
		locked, err := awaitAck(conn, remote, 0, nil, buf, cfg, logger)
		if err != nil {
			r.Close()
			return err
		}
		remote = locked
	}

	var blocknum uint16
	block := make([]byte, cfg.BlockSize)
	for {
		blocknum++
		n, err := io.ReadFull(r, block)
		last := false
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			// Short block signals the end of the transfer.
			last = true
		default:
			logger.Error().Err(err).Msg("block read failed")
			sendError(conn, remote, wire.ERR_NOT_DEFINED, "Read failed")
			r.Close()
			return err
		}

		data := &wire.Data{Block: blocknum, Payload: block[:n]}
		if _, err := awaitAck(conn, remote, blocknum, data.Bytes(), buf, cfg, logger); err != nil {
			r.Close()
			return err
		}
		if last {
			logger.Info().Uint16("blocks", blocknum).Msg("read session completed")
			return nil
		}
	}
}

// awaitAck waits for the ACK of block want. When resend is non-nil it is
// sent immediately and again after each step of the retransmit schedule;
// the final schedule entry is a plain wait. Returns the transfer ID the
// session is locked onto.
func awaitAck(conn *net.UDPConn, remote *net.UDPAddr, want uint16, resend []byte, buf []byte, cfg Config, logger zerolog.Logger) (*net.UDPAddr, error) {
	schedule := make([]time.Duration, 0, len(cfg.Retransmit)+1)
	schedule = append(schedule, cfg.Retransmit...)
	schedule = append(schedule, cfg.FinalTimeout)

	if resend != nil {
		if _, err := conn.WriteToUDP(resend, remote); err != nil {
			return remote, err
		}
	}

	for attempt, wait := range schedule {
		deadline := time.Now().Add(wait)
		for {
			dgram, addr, err := recv(conn, buf, deadline)
			if err != nil {
				if isTimeout(err) {
					break
				}
				if addr == nil {
					return remote, err
				}
				logger.Warn().Err(err).Stringer("from", addr).Msg("dropping undecodable datagram")
				continue
			}
			if remote == nil {
				remote = addr
				logger.Info().Stringer("remote", remote).Msg("locked onto transfer id")
			} else if !sameTID(remote, addr) {
				rejectTID(conn, addr, logger)
				continue
			}

			switch d := dgram.(type) {
			case *wire.Ack:
				if d.Block == want {
					return remote, nil
				}
				if d.Block < want {
					logger.Debug().Uint16("block", d.Block).Msg("duplicate ack ignored")
					continue
				}
				sendError(conn, remote, wire.ERR_ILLEGAL_OP, "Block number mismatch")
			case *wire.Error:
				logger.Warn().Stringer("error", d).Msg("remote ended the transfer")
				return remote, RemoteError{Code: d.Code, Message: d.Message}
			default:
				logger.Warn().Uint16("opcode", dgram.Opcode()).Msg("unexpected datagram kind")
			}
		}
		if resend != nil && attempt < len(schedule)-1 {
			logger.Debug().Uint16("block", want).Msg("retransmitting block")
			if _, err := conn.WriteToUDP(resend, remote); err != nil {
				return remote, err
			}
		}
	}
	logger.Warn().Uint16("block", want).Msg("gave up waiting for ack")
	return remote, ErrTimeout
}
