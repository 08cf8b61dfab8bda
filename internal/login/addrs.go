// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package login

import (
	"net"
	"net/netip"

	"github.com/samber/oops"
)

// Endpoints chooses which advertised login address to report to a client.
// Loopback clients and clients inside a configured local subnet get the
// local endpoint; everyone else gets the external one.
type Endpoints struct {
	external  netip.AddrPort
	local     netip.AddrPort
	localNets []netip.Prefix
}

// NewEndpoints resolves the configured external and local addresses.
// localSubnets are CIDR prefixes whose clients are directed to the local
// endpoint.
func NewEndpoints(externalAddr, localAddr string, port uint16, localSubnets []string) (*Endpoints, error) {
	external, err := resolveAddr(externalAddr, port)
	if err != nil {
		return nil, oops.Code("ENDPOINT_RESOLVE_FAILED").
			With("address", externalAddr).
			Wrap(err)
	}
	local, err := resolveAddr(localAddr, port)
	if err != nil {
		return nil, oops.Code("ENDPOINT_RESOLVE_FAILED").
			With("address", localAddr).
			Wrap(err)
	}

	nets := make([]netip.Prefix, 0, len(localSubnets))
	for _, cidr := range localSubnets {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, oops.Code("ENDPOINT_SUBNET_INVALID").
				With("subnet", cidr).
				Wrap(err)
		}
		nets = append(nets, prefix)
	}

	return &Endpoints{external: external, local: local, localNets: nets}, nil
}

// ForClient returns the endpoint to advertise to the given client address.
func (e *Endpoints) ForClient(client netip.Addr) netip.AddrPort {
	client = client.Unmap()
	if client.IsLoopback() {
		return e.local
	}
	for _, prefix := range e.localNets {
		if prefix.Contains(client) {
			return e.local
		}
	}
	return e.external
}

// External returns the externally advertised endpoint.
func (e *Endpoints) External() netip.AddrPort {
	return e.external
}

// resolveAddr parses addr as a literal IP, falling back to a hostname
// lookup. Only IPv4 results are considered; legacy clients do not speak
// IPv6 to the login service.
func resolveAddr(addr string, port uint16) (netip.AddrPort, error) {
	if ip, err := netip.ParseAddr(addr); err == nil {
		return netip.AddrPortFrom(ip.Unmap(), port), nil
	}

	ips, err := net.LookupIP(addr)
	if err != nil {
		return netip.AddrPort{}, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			parsed, ok := netip.AddrFromSlice(v4)
			if !ok {
				continue
			}
			return netip.AddrPortFrom(parsed, port), nil
		}
	}
	return netip.AddrPort{}, oops.Errorf("no IPv4 address for %q", addr)
}
