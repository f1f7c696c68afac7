package client

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/jonwraymond/tokenops/grant"
)

// Client is a registered OAuth 2.0 client.
type Client struct {
	// ID is the client identifier.
	ID string

	// RedirectURIs are the registered redirection endpoints.
	RedirectURIs []string

	// GrantTypes are the grant types the client may use.
	GrantTypes []grant.Type

	// Public marks a client without credentials (RFC 6749 §2.1).
	Public bool

	// SecretHash is the bcrypt hash of the client secret.
	SecretHash []byte
}

// Validate checks the record. Redirect URIs must be absolute and must not
// carry a fragment (RFC 6749 §3.1.2).
func (c *Client) Validate() error {
	if c.ID == "" {
		return ErrMissingID
	}
	for _, uri := range c.RedirectURIs {
		u, err := url.Parse(uri)
		if err != nil || !u.IsAbs() || strings.Contains(uri, "#") {
			return fmt.Errorf("%w: %q", ErrInvalidRedirectURI, uri)
		}
	}
	for _, t := range c.GrantTypes {
		if !t.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidGrantType, t)
		}
	}
	if !c.Public && len(c.SecretHash) == 0 {
		return ErrMissingSecret
	}
	return nil
}

// AllowsGrant reports whether the client may use grant type t.
func (c *Client) AllowsGrant(t grant.Type) bool {
	return slices.Contains(c.GrantTypes, t)
}

// HasRedirectURI reports whether uri is registered for the client.
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// DefaultRedirectURI returns the only registered redirect URI. Clients with
// none or several have no default.
func (c *Client) DefaultRedirectURI() (string, bool) {
	if len(c.RedirectURIs) != 1 {
		return "", false
	}
	return c.RedirectURIs[0], true
}

// Clone returns a deep copy.
func (c *Client) Clone() *Client {
	out := *c
	out.RedirectURIs = slices.Clone(c.RedirectURIs)
	out.GrantTypes = slices.Clone(c.GrantTypes)
	out.SecretHash = slices.Clone(c.SecretHash)
	return &out
}
