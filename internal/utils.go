package internal

import (
	"errors"
	"net"
	"net/url"

	"github.com/gosimple/slug"
)

// BuildInviteLink returns the link a host shares to bring the second
// player into a match. The password is included only when set.
func BuildInviteLink(publicURL, matchId, matchName, password string) (string, error) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("session", matchId)
	q.Set("name", slug.Make(matchName))
	if password != "" {
		q.Set("password", password)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ServerIpNet finds the first non-loopback IPv4 address of an interface
// that is up. It is the key the analytics counters are stored under.
func ServerIpNet() (net.IPNet, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPNet{}, err
	}

	for _, iface := range ifaces {
		// If the flag is down
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			return net.IPNet{}, err
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipnet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
				return net.IPNet{IP: ip4, Mask: net.CIDRMask(32, 32)}, nil
			}
		}
	}

	return net.IPNet{}, errors.New("no non-loopback ipv4 address found")
}

// LoopbackIpNet is used when the host has no routable address, e.g. in
// containers without networking.
func LoopbackIpNet() net.IPNet {
	return net.IPNet{IP: net.IPv4(127, 0, 0, 1).To4(), Mask: net.CIDRMask(32, 32)}
}
