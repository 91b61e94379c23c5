package comms

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"

	"go_tftp/constants"
	"go_tftp/fileio"
	"go_tftp/netascii"
	"go_tftp/session"
	"go_tftp/wire"
)

// Client talks to one TFTP server. Every transfer runs on a fresh
// ephemeral socket so each one gets its own transfer ID.
type Client struct {
	server *net.UDPAddr
	dscp   int
	cfg    session.Config
	logger zerolog.Logger
}

// New resolves the server address up front so transfers fail fast on a
// bad host name.
func New(address string, dscp int, cfg session.Config, logger zerolog.Logger) (*Client, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, err
	}
	return &Client{server: addr, dscp: dscp, cfg: cfg, logger: logger}, nil
}

// dial opens the transfer socket.
func (c *Client) dial() (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}
	// Set DSCP. NOTE: On Windows by default it will not apply the value.
	ipv4.NewConn(conn).SetTOS(c.dscp)
	return conn, nil
}

// Get downloads remoteName into localPath.
func (c *Client) Get(remoteName, localPath, mode string) error {
	mode, err := checkMode(mode)
	if err != nil {
		return err
	}
	logger := c.logger.With().Str("file", remoteName).Logger()

	f, err := os.CreateTemp(filepath.Dir(localPath), ".tftp-*")
	if err != nil {
		return err
	}
	var w fileio.Writer = &localWriter{file: f, dest: localPath}
	if mode == constants.MODE_NETASCII {
		w = netascii.NewWriter(w)
	}

	conn, err := c.dial()
	if err != nil {
		w.Cancel()
		return err
	}
	defer conn.Close()

	rq := wire.NewReadRequest(remoteName, mode)
	logger.Info().Stringer("request", rq).Stringer("server", c.server).Msg("downloading")
	if _, err := conn.WriteToUDP(rq.Bytes(), c.server); err != nil {
		w.Cancel()
		return err
	}
	// The first DATA block arrives from the server's session socket.
	return session.Write(conn, nil, w, false, c.cfg, logger)
}

// Put uploads localPath to the server as remoteName.
func (c *Client) Put(localPath, remoteName, mode string) error {
	mode, err := checkMode(mode)
	if err != nil {
		return err
	}
	logger := c.logger.With().Str("file", remoteName).Logger()

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	var r fileio.Reader = f
	if mode == constants.MODE_NETASCII {
		r = netascii.NewReader(f)
	}

	conn, err := c.dial()
	if err != nil {
		r.Close()
		return err
	}
	defer conn.Close()

	rq := wire.NewWriteRequest(remoteName, mode)
	logger.Info().Stringer("request", rq).Stringer("server", c.server).Msg("uploading")
	if _, err := conn.WriteToUDP(rq.Bytes(), c.server); err != nil {
		r.Close()
		return err
	}
	// The zero ACK arrives from the server's session socket.
	return session.Read(conn, nil, r, true, c.cfg, logger)
}

func checkMode(mode string) (string, error) {
	mode = strings.ToLower(mode)
	if mode != constants.MODE_OCTET && mode != constants.MODE_NETASCII {
		return "", fmt.Errorf("unknown transfer mode %q, expected 'netascii' or 'octet'", mode)
	}
	return mode, nil
}

// localWriter stages a download in a temp file next to the destination
// and renames it into place once the transfer completes, so a failed
// download never disturbs whatever the destination held before.
type localWriter struct {
	file *os.File
	dest string
}

func (w *localWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *localWriter) Finish() error {
	if err := w.file.Close(); err != nil {
		os.Remove(w.file.Name())
		return err
	}
	return os.Rename(w.file.Name(), w.dest)
}

func (w *localWriter) Cancel() error {
	w.file.Close()
	return os.Remove(w.file.Name())
}
