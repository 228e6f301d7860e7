// Package identity derives stable client identities from request metadata.
// An identity buckets usage per client: it combines the client's network
// address with an optional opaque client token into a composite key. The
// derivation is a pure function with no state.
package identity

import (
	"net"
	"net/http"
	"strings"
)

// Identity identifies a client for usage accounting.
type Identity struct {
	// Address is the client network address without the port.
	Address string

	// Token is the opaque client-supplied token, empty when absent.
	Token string
}

// Derive builds an Identity from an address and an optional token.
func Derive(address, token string) Identity {
	return Identity{
		Address: stripPort(address),
		Token:   token,
	}
}

// FromRequest derives the Identity for an HTTP request. The first hop of
// X-Forwarded-For wins over the connection's remote address when present;
// the token comes from the X-Client-Token header.
func FromRequest(r *http.Request) Identity {
	address := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			address = strings.TrimSpace(first)
		} else {
			address = strings.TrimSpace(fwd)
		}
	}
	return Derive(address, r.Header.Get("X-Client-Token"))
}

// Key returns the composite ledger key: address + "::" + token.
func (id Identity) Key() string {
	return id.Address + "::" + id.Token
}

// stripPort removes a trailing :port from an address, leaving bare addresses
// and bracketed IPv6 hosts intact.
func stripPort(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}
