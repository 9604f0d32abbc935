// Package namespace defines the Battle.net API namespaces a request is scoped to.
package namespace

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownNamespace is returned by Parse for unrecognised names.
var ErrUnknownNamespace = errors.New("unknown namespace")

// Namespace selects which versioning and data rules the remote API applies.
type Namespace int

const (
	// Profile covers account and character data that changes per player.
	Profile Namespace = iota + 1
	// Static covers patch-versioned game data (classes, mounts, items).
	Static
	// Dynamic covers server-side data that changes between patches (realms, auctions).
	Dynamic
)

var names = map[Namespace]string{
	Profile: "profile",
	Static:  "static",
	Dynamic: "dynamic",
}

// String returns the wire name without a region suffix.
func (n Namespace) String() string {
	if s, ok := names[n]; ok {
		return s
	}
	return fmt.Sprintf("namespace(%d)", int(n))
}

// Valid reports whether n is one of the declared namespaces.
func (n Namespace) Valid() bool {
	_, ok := names[n]
	return ok
}

// Qualify returns the region-qualified value sent in the Battlenet-Namespace
// header, e.g. "profile-eu".
func (n Namespace) Qualify(region string) string {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		return n.String()
	}
	return n.String() + "-" + region
}

// Parse maps a case-insensitive name to a Namespace.
func Parse(s string) (Namespace, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for ns, name := range names {
		if name == key {
			return ns, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownNamespace, s)
}

// MarshalText encodes n by its wire name.
func (n Namespace) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNamespace, int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText parses a wire name.
func (n *Namespace) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
