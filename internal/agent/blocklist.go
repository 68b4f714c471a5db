// internal/agent/blocklist.go
package agent

import (
	"fmt"
	"net/url"
	"strings"
)

// Blocklist rejects page URLs whose hostname matches a disallowed domain or
// one of its subdomains.
type Blocklist struct {
	domains []string
}

// NewBlocklist normalizes the configured domain patterns.
func NewBlocklist(domains []string) *Blocklist {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Blocklist{domains: normalized}
}

// Check validates a raw URL, returning *BlockedURLError on a match. An
// unparseable URL is also rejected: a URL that cannot be vetted cannot be
// attached to an output item.
func (b *Blocklist) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("unparseable page URL %q: %w", rawURL, err)
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range b.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return &BlockedURLError{URL: rawURL, Pattern: domain}
		}
	}
	return nil
}
