package constants

import "time"

const (
	DEFAULT_PORT      = 69    // Well known TFTP server port
	BLOCK_SIZE        = 512   // RFC1350 fixed block size
	MAX_DATAGRAM_SIZE = 65535 // Largest UDP payload worth reading
	MODE_OCTET        = "octet"
	MODE_NETASCII     = "netascii"
	DEFAULT_MODE      = MODE_OCTET
	DEFAULT_DSCP      = 0x00 // Best effort
)

const (
	// Inactivity watchdog for sessions that are waiting for data.
	RECEIVE_TIMEOUT = 10 * time.Second
	// Final wait after the retransmit schedule has been exhausted.
	FINAL_TIMEOUT = 10 * time.Second
)

// RetransmitSchedule is how long a sending session waits for an ACK
// before resending the current block.
var RetransmitSchedule = []time.Duration{3 * time.Second, 5 * time.Second}
