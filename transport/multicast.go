package transport

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// defaultMulticastTTL matches the original socket setup's choice: one hop,
// since every deployment of this engine runs all collaborators on the same
// subnet.
const defaultMulticastTTL = 1

// JoinMulticastGroup opens a UDP socket bound to group's port and joined to
// group's multicast address on the given interface (nil selects the
// default). Any number of processes on the host can independently join the
// same group this way; each gets its own copy of every datagram. The
// returned conn is unconnected: it can Read from any source, which is what
// RunFeed and RunNackService's incoming-request path need, but it cannot
// use the bare Write/Read contract both sides of a NACK exchange require —
// pair it with DialUnicast for anything that also needs to send.
func JoinMulticastGroup(group string, iface *net.Interface) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve multicast group %q: %w", group, err)
	}
	conn, err := net.ListenMulticastUDP("udp4", iface, addr)
	if err != nil {
		return nil, fmt.Errorf("transport: join multicast group %q: %w", group, err)
	}
	return conn, nil
}

// DialMulticastGroup opens a UDP socket connected to group's address, for
// the one sender in the system that publishes the data stream. The
// returned conn supports the bare Write used by Sender.flush. ttl of 0
// falls back to defaultMulticastTTL.
func DialMulticastGroup(group string, ttl int) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve multicast group %q: %w", group, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial multicast group %q: %w", group, err)
	}
	if ttl <= 0 {
		ttl = defaultMulticastTTL
	}
	if err := ipv4.NewPacketConn(conn).SetMulticastTTL(ttl); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: set multicast ttl: %w", err)
	}
	return conn, nil
}

// DialUnicast opens a UDP socket connected to remoteAddr, bound to
// localAddr (an empty localAddr picks an ephemeral port). This is the
// control-channel building block for every NACK service pair in this
// module: rather than a shared multicast NACK group, each collaborator
// dials its own private request/retransmit pair directly to its
// counterpart, so both ends can rely on the plain Read/Write contract
// Sender and Receiver are built against. The tradeoff is documented in
// DESIGN.md's transport section: a shared NACK group would let
// one retransmit satisfy every lagging subscriber at once; dedicated pairs
// mean the sender replays the same gap once per subscriber that asks.
func DialUnicast(localAddr, remoteAddr string) (*net.UDPConn, error) {
	remote, err := net.ResolveUDPAddr("udp4", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve remote %q: %w", remoteAddr, err)
	}
	var local *net.UDPAddr
	if localAddr != "" {
		local, err = net.ResolveUDPAddr("udp4", localAddr)
		if err != nil {
			return nil, fmt.Errorf("transport: resolve local %q: %w", localAddr, err)
		}
	}
	conn, err := net.DialUDP("udp4", local, remote)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %q -> %q: %w", localAddr, remoteAddr, err)
	}
	return conn, nil
}
