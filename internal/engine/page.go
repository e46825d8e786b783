package engine

import (
	"net/url"
	"strings"
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// CurrentPage reduces a full location to origin + path the way a browser
// reports it: query and fragment dropped, default port omitted, empty path
// written as "/". Inputs that do not parse as absolute URLs are only cut at
// the first '?' or '#'.
func CurrentPage(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		host := strings.ToLower(u.Host)
		if p := u.Port(); p != "" && defaultPorts[u.Scheme] == p {
			host = strings.TrimSuffix(host, ":"+p)
		}
		path := u.EscapedPath()
		if path == "" {
			path = "/"
		}
		return u.Scheme + "://" + host + path
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
