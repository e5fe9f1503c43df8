// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"fmt"
	"strconv"
	"strings"
)

// Address families accepted in remote specifications.
const (
	FamilyInet  = 2
	FamilyInet6 = 10
)

// Addr is the network address of a cluster node.
type Addr struct {
	Host   string
	Port   uint16
	Family int
}

// String returns the address as host:port:family.
func (a Addr) String() string {
	return a.Host + ":" + strconv.Itoa(int(a.Port)) + ":" + strconv.Itoa(a.Family)
}

// IsZero reports whether a is the zero address.
func (a Addr) IsZero() bool {
	return a == Addr{}
}

// ParseAddr parses host:port:family. Family can be omitted and
// defaults to FamilyInet. IPv6 hosts keep their colons:
// "::1:1025:10" is host "::1", port 1025, family 10.
func ParseAddr(s string) (Addr, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return Addr{}, fmt.Errorf("elliptics: parse addr %q: want host:port[:family]", s)
	}

	family := FamilyInet
	if len(parts) >= 3 {
		if f, err := strconv.Atoi(parts[len(parts)-1]); err == nil && (f == FamilyInet || f == FamilyInet6) {
			if _, err := strconv.ParseUint(parts[len(parts)-2], 10, 16); err == nil {
				family = f
				parts = parts[:len(parts)-1]
			}
		}
	}

	port, err := strconv.ParseUint(parts[len(parts)-1], 10, 16)
	if err != nil {
		return Addr{}, fmt.Errorf("elliptics: parse addr %q: invalid port: %w", s, err)
	}
	host := strings.Join(parts[:len(parts)-1], ":")
	if host == "" {
		return Addr{}, fmt.Errorf("elliptics: parse addr %q: empty host", s)
	}
	return Addr{Host: host, Port: uint16(port), Family: family}, nil
}
