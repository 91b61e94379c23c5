package session

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"go_tftp/constants"
	"go_tftp/fileio"
	"go_tftp/wire"
)

// Write runs the receiving side of a transfer: DATA blocks arrive on conn
// and are written to w, each one acknowledged. ackHandshake makes the
// session open with an ACK of block zero, which is how a server accepts a
// write request. A nil remote locks onto the first peer that sends data,
// which is how a client receives the answer to a read request from a
// fresh transfer ID.
func Write(conn *net.UDPConn, remote *net.UDPAddr, w fileio.Writer, ackHandshake bool, cfg Config, logger zerolog.Logger) error {
	cfg = cfg.withDefaults()
	logger = logger.With().Str("session", "write").Logger()
	logger.Info().Stringer("local", conn.LocalAddr()).Msg("write session started")

	if ackHandshake {
		ack := &wire.Ack{Block: 0}
		if _, err := conn.WriteToUDP(ack.Bytes(), remote); err != nil {
			w.Cancel()
			return err
		}
	}

	var blocknum uint16
	buf := make([]byte, constants.MAX_DATAGRAM_SIZE)
	for {
		dgram, addr, err := recv(conn, buf, time.Now().Add(cfg.ReceiveTimeout))
		if err != nil {
			if isTimeout(err) {
				logger.Warn().Msg("timed out while waiting for next block")
				w.Cancel()
				return ErrTimeout
			}
			if addr == nil {
				w.Cancel()
				return err
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
		case *wire.Data:
			done, err := nextBlock(conn, remote, w, d, &blocknum, cfg, logger)
			if err != nil {
				return err
			}
			if done {
				logger.Info().Uint16("blocks", blocknum).Msg("write session completed")
				return nil
			}
		case *wire.Error:
			logger.Warn().Stringer("error", d).Msg("remote ended the transfer")
			w.Cancel()
			return RemoteError{Code: d.Code, Message: d.Message}
		default:
			logger.Warn().Uint16("opcode", dgram.Opcode()).Msg("unexpected datagram kind")
		}
	}
}

// nextBlock applies one DATA datagram to the transfer. A short block
// finishes the file and acknowledges it one last time.
func nextBlock(conn *net.UDPConn, remote *net.UDPAddr, w fileio.Writer, d *wire.Data, blocknum *uint16, cfg Config, logger zerolog.Logger) (bool, error) {
	next := *blocknum + 1
	switch {
	case d.Block == next:
		if _, err := w.Write(d.Payload); err != nil {
			logger.Error().Err(err).Msg("block write failed")
			sendError(conn, remote, wire.ERR_DISK_FULL, "")
			w.Cancel()
			return false, err
		}
		*blocknum = next
		ack := &wire.Ack{Block: next}
		if _, err := conn.WriteToUDP(ack.Bytes(), remote); err != nil {
			w.Cancel()
			return false, err
		}
		if len(d.Payload) < cfg.BlockSize {
			return true, w.Finish()
		}
		return false, nil
	case d.Block <= *blocknum:
		// Retransmitted block, acknowledge it again.
		logger.Debug().Uint16("block", d.Block).Msg("duplicate block re-acknowledged")
		ack := &wire.Ack{Block: d.Block}
		_, err := conn.WriteToUDP(ack.Bytes(), remote)
		return false, err
	default:
		sendError(conn, remote, wire.ERR_ILLEGAL_OP, "Block number mismatch")
		return false, nil
	}
}
