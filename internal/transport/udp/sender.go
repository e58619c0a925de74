// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"net"
	"sync"

	applog "playbacque/internal/log"
	"playbacque/internal/pcm"
	"playbacque/internal/transport"
)

// DefaultPacketSize keeps datagrams below a typical 1500 byte MTU while
// holding a whole number of frames.
const DefaultPacketSize = 1400 / pcm.FrameSize * pcm.FrameSize

// UDPSender forwards the PCM stream as fixed-size UDP datagrams. There is no
// header: each datagram is a run of raw frames, and lost datagrams are simply
// gaps in the audio.
type UDPSender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	packetSize int
	mu         sync.Mutex // Protects conn during Close
	closed     bool
}

// NewUDPSender creates a new UDPSender targeting the specified address.
// The address should be in the format "host:port", e.g., "127.0.0.1:9090".
// A packetSize of zero selects DefaultPacketSize.
func NewUDPSender(targetAddress string, packetSize int) (*UDPSender, error) {
	if packetSize == 0 {
		packetSize = DefaultPacketSize
	}
	if packetSize < 0 || packetSize%pcm.FrameSize != 0 {
		return nil, fmt.Errorf("UDP packet size %d must be a positive multiple of %d", packetSize, pcm.FrameSize)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	// We don't need to bind to a specific local port for sending,
	// so we use nil for the local address in DialUDP.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Infof("UDPSender: Sending %d byte datagrams to %s", packetSize, conn.RemoteAddr())

	return &UDPSender{
		conn:       conn,
		targetAddr: udpAddr,
		packetSize: packetSize,
	}, nil
}

// ChunkSize makes the sender transport.Framed, so each Send is one datagram.
func (s *UDPSender) ChunkSize() int {
	return s.packetSize
}

// Send transmits the given byte slice as a UDP packet. Empty buffers are
// skipped.
func (s *UDPSender) Send(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return transport.ErrClosed
	}
	_, err := s.conn.Write(data)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil // Already closed
	}

	s.closed = true
	if s.conn != nil {
		applog.Debugf("UDPSender: Closing connection to %s", s.conn.RemoteAddr())
		err := s.conn.Close()
		s.conn = nil // Prevent further use
		if err != nil {
			return fmt.Errorf("failed to close UDP connection: %w", err)
		}
	}
	return nil
}

var (
	_ transport.Sink   = (*UDPSender)(nil)
	_ transport.Framed = (*UDPSender)(nil)
)
