package controller

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"go_tftp/fileio"
	"go_tftp/session"
	"go_tftp/wire"
)

func testConfig() session.Config {
	return session.Config{
		BlockSize:      4,
		ReceiveTimeout: 2 * time.Second,
		Retransmit:     []time.Duration{300 * time.Millisecond},
		FinalTimeout:   time.Second,
	}
}

func startServer(t *testing.T, root string, canRead, canWrite bool) *net.UDPAddr {
	t.Helper()
	backend, err := fileio.NewFilesystem(root, canRead, canWrite)
	if err != nil {
		t.Fatalf("backend setup failed: %v", err)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	srv := New(backend, testConfig(), zerolog.Nop())
	go srv.Serve(conn)
	return conn.LocalAddr().(*net.UDPAddr)
}

func newPeer(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("peer listen failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// recvFrom reads one datagram and reports its source, which for session
// traffic is the server's ephemeral transfer ID.
func recvFrom(t *testing.T, conn *net.UDPConn) (wire.Datagram, *net.UDPAddr) {
	t.Helper()
	buf := make([]byte, 1024)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("peer read failed: %v", err)
	}
	op, payload, err := wire.SplitOpcode(buf[:n])
	if err != nil {
		t.Fatalf("peer split failed: %v", err)
	}
	dgram, err := wire.Create(op, payload)
	if err != nil {
		t.Fatalf("peer decode failed: %v", err)
	}
	return dgram, addr
}

func TestReadRequestRoundTrip(t *testing.T) {
	root := t.TempDir()
	content := []byte("0123456789")
	if err := os.WriteFile(filepath.Join(root, "file.bin"), content, 0o644); err != nil {
		t.Fatal(err)
	}
	serverAddr := startServer(t, root, true, true)
	peer := newPeer(t)

	rq := wire.NewReadRequest("file.bin", "octet")
	peer.WriteToUDP(rq.Bytes(), serverAddr)

	var got []byte
	var tid *net.UDPAddr
	for block := uint16(1); ; block++ {
		dgram, addr := recvFrom(t, peer)
		d, ok := dgram.(*wire.Data)
		if !ok {
			t.Fatalf("expected DATA, got %v", dgram)
		}
		if tid == nil {
			tid = addr
			if tid.Port == serverAddr.Port {
				t.Fatal("session should run on an ephemeral port")
			}
		}
		if d.Block != block {
			t.Fatalf("expected block %d, got %d", block, d.Block)
		}
		got = append(got, d.Payload...)
		peer.WriteToUDP((&wire.Ack{Block: d.Block}).Bytes(), tid)
		if len(d.Payload) < 4 {
			break
		}
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestWriteRequestRoundTrip(t *testing.T) {
	root := t.TempDir()
	serverAddr := startServer(t, root, true, true)
	peer := newPeer(t)

	rq := wire.NewWriteRequest("upload.bin", "octet")
	peer.WriteToUDP(rq.Bytes(), serverAddr)

	dgram, tid := recvFrom(t, peer)
	ack, ok := dgram.(*wire.Ack)
	if !ok || ack.Block != 0 {
		t.Fatalf("expected ACK(0), got %v", dgram)
	}

	peer.WriteToUDP((&wire.Data{Block: 1, Payload: []byte("abcd")}).Bytes(), tid)
	dgram, _ = recvFrom(t, peer)
	if ack, ok = dgram.(*wire.Ack); !ok || ack.Block != 1 {
		t.Fatalf("expected ACK(1), got %v", dgram)
	}
	peer.WriteToUDP((&wire.Data{Block: 2, Payload: []byte("ef")}).Bytes(), tid)
	dgram, _ = recvFrom(t, peer)
	if ack, ok = dgram.(*wire.Ack); !ok || ack.Block != 2 {
		t.Fatalf("expected ACK(2), got %v", dgram)
	}

	// Finish runs right after the final ack; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := os.ReadFile(filepath.Join(root, "upload.bin"))
		if err == nil {
			if !bytes.Equal(got, []byte("abcdef")) {
				t.Fatalf("content mismatch: %q", got)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("uploaded file never appeared: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReadRequestMissingFile(t *testing.T) {
	serverAddr := startServer(t, t.TempDir(), true, true)
	peer := newPeer(t)

	peer.WriteToUDP(wire.NewReadRequest("nope.bin", "octet").Bytes(), serverAddr)
	dgram, _ := recvFrom(t, peer)
	e, ok := dgram.(*wire.Error)
	if !ok || e.Code != wire.ERR_FILE_NOT_FOUND {
		t.Fatalf("expected ERROR(1), got %v", dgram)
	}
}

func TestWriteRequestExistingFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "taken"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	serverAddr := startServer(t, root, true, true)
	peer := newPeer(t)

	peer.WriteToUDP(wire.NewWriteRequest("taken", "octet").Bytes(), serverAddr)
	dgram, _ := recvFrom(t, peer)
	e, ok := dgram.(*wire.Error)
	if !ok || e.Code != wire.ERR_FILE_EXISTS {
		t.Fatalf("expected ERROR(6), got %v", dgram)
	}
}

func TestRequestEscapingRoot(t *testing.T) {
	serverAddr := startServer(t, t.TempDir(), true, true)
	peer := newPeer(t)

	peer.WriteToUDP(wire.NewReadRequest("../secret", "octet").Bytes(), serverAddr)
	dgram, _ := recvFrom(t, peer)
	e, ok := dgram.(*wire.Error)
	if !ok || e.Code != wire.ERR_ACCESS_VIOLATION {
		t.Fatalf("expected ERROR(2), got %v", dgram)
	}
}

func TestUnknownTransferMode(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "file.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	serverAddr := startServer(t, root, true, true)
	peer := newPeer(t)

	peer.WriteToUDP(wire.NewReadRequest("file.bin", "mail").Bytes(), serverAddr)
	dgram, _ := recvFrom(t, peer)
	e, ok := dgram.(*wire.Error)
	if !ok || e.Code != wire.ERR_ILLEGAL_OP {
		t.Fatalf("expected ERROR(4), got %v", dgram)
	}
}

func TestReadDisabledBackend(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "file.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	serverAddr := startServer(t, root, false, true)
	peer := newPeer(t)

	peer.WriteToUDP(wire.NewReadRequest("file.bin", "octet").Bytes(), serverAddr)
	dgram, _ := recvFrom(t, peer)
	e, ok := dgram.(*wire.Error)
	if !ok || e.Code != wire.ERR_NOT_DEFINED || e.Message != "Operation not supported" {
		t.Fatalf("expected not-supported ERROR, got %v", dgram)
	}
}

func TestNetasciiReadConversion(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("a\nb"), 0o644); err != nil {
		t.Fatal(err)
	}
	serverAddr := startServer(t, root, true, true)
	peer := newPeer(t)

	peer.WriteToUDP(wire.NewReadRequest("notes.txt", "netascii").Bytes(), serverAddr)

	var got []byte
	var tid *net.UDPAddr
	for {
		dgram, addr := recvFrom(t, peer)
		d, ok := dgram.(*wire.Data)
		if !ok {
			t.Fatalf("expected DATA, got %v", dgram)
		}
		if tid == nil {
			tid = addr
		}
		got = append(got, d.Payload...)
		peer.WriteToUDP((&wire.Ack{Block: d.Block}).Bytes(), tid)
		if len(d.Payload) < 4 {
			break
		}
	}
	if !bytes.Equal(got, []byte("a\r\nb")) {
		t.Fatalf("netascii conversion mismatch: %q", got)
	}
}
