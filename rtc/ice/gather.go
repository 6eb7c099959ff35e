package ice

import (
	"fmt"
	"net"
	"strconv"
)

// getInterfaceIps returns a slice of IP addresses for the network interfaces on the machine
func getInterfaceIps(v6 bool) ([]string, error) {
	var ips []string
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok {
			if (ipNet.IP.To4() != nil) || (v6 && isSupportedIPv6(ipNet.IP)) {
				ips = append(ips, ipNet.IP.String())
			}
		}
	}
	if len(ips) == 0 {
		return nil, ErrNoAvailableIP
	}

	return ips, nil
}

// from pion/ice
// The conditions of invalidation written below are defined in
// https://tools.ietf.org/html/rfc8445#section-5.1.1.1
func isSupportedIPv6(ip net.IP) bool {
	if len(ip) != net.IPv6len ||
		isZeros(ip[0:12]) || // !(IPv4-compatible IPv6)
		ip[0] == 0xfe && ip[1]&0xc0 == 0xc0 || // !(IPv6 site-local unicast)
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() {
		return false
	}
	return true
}

func isZeros(ip net.IP) bool {
	for i := 0; i < len(ip); i++ {
		if ip[i] != 0 {
			return false
		}
	}
	return true
}

// validateIps keeps the requested ips that exist locally, all of them when none requested.
func validateIps(ips []string, ipv6 bool) ([]string, error) {
	localIps, err := getInterfaceIps(ipv6)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return localIps, nil
	}
	result := make([]string, 0, len(ips))
	for _, ip := range ips {
		var found bool
		for _, interfaceIP := range localIps {
			if ip == interfaceIP {
				found = true
				result = append(result, ip)
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIP, ip)
		}
	}
	return result, nil
}

// listenUDP tries every port of [minPort, maxPort], 0 and 0 means any port.
func listenUDP(ip string, minPort, maxPort uint16) (net.PacketConn, error) {
	if maxPort < minPort {
		maxPort = minPort
	}
	for port := int(minPort); port <= int(maxPort); port++ {
		conn, err := net.ListenPacket(UDP, net.JoinHostPort(ip, strconv.Itoa(port)))
		if err == nil {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoAvailablePort, ip)
}
