package frontier

import (
	"fmt"
	"net/url"
	"strings"
)

// Aliases is the internal host pair of a target: its host as given and the
// same host with the "www." prefix toggled. Nothing else is internal, so
// subdomains and other hosts are always external.
type Aliases [2]string

// NewAliases derives the alias pair from the target URL.
func NewAliases(target string) (Aliases, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Aliases{}, fmt.Errorf("parse target %q: %w", target, err)
	}
	if u.Host == "" {
		return Aliases{}, fmt.Errorf("target %q has no host", target)
	}

	host := strings.ToLower(u.Host)
	if strings.HasPrefix(host, "www.") {
		return Aliases{host, strings.TrimPrefix(host, "www.")}, nil
	}
	return Aliases{host, "www." + host}, nil
}

// Contains reports whether host equals one of the aliases, ignoring case.
func (a Aliases) Contains(host string) bool {
	host = strings.ToLower(host)
	return host != "" && (host == a[0] || host == a[1])
}

// IsInternal reports whether rawURL's host is one of the aliases.
func (a Aliases) IsInternal(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return a.Contains(u.Host)
}
