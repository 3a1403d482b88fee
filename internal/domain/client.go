package domain

import "time"

// ClientSecret is an opaque signing credential. The zero value is never
// valid; secrets are always generated by ClientRegistry.
type ClientSecret string

// Client is an external API caller identity. A client is created on first
// reference and is never deleted.
type Client struct {
	ClientID        string         `bson:"_id" json:"clientId"`
	Secrets         []ClientSecret `bson:"secrets" json:"-"`
	CreatedDateTime time.Time      `bson:"createdDateTime" json:"createdDateTime"`
}

// ActiveSecret returns the first (most recently rotated-in) secret, which
// is the one used to sign new outbound pushes. Older secrets remain in
// Secrets so a rotation window can still verify/accept them upstream.
func (c *Client) ActiveSecret() (ClientSecret, bool) {
	if len(c.Secrets) == 0 {
		return "", false
	}
	return c.Secrets[0], true
}
