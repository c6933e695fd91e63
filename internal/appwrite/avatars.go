package appwrite

import "net/url"

// InitialsURL returns the URL of an avatar image rendering the initials of name.
func (c *Client) InitialsURL(name string) string {
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}
	return c.resourceURL("/avatars/initials", params)
}
