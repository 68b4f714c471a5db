package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocklist_ExactAndSubdomainMatch(t *testing.T) {
	bl := NewBlocklist([]string{"maliciousbook.com", "Evilcorp.net"})

	cases := []struct {
		url     string
		pattern string
	}{
		{"https://maliciousbook.com/", "maliciousbook.com"},
		{"https://www.maliciousbook.com/feed", "maliciousbook.com"},
		{"http://deep.nested.maliciousbook.com", "maliciousbook.com"},
		{"https://EVILCORP.NET/login", "evilcorp.net"},
	}
	for _, tc := range cases {
		err := bl.Check(tc.url)
		var blocked *BlockedURLError
		require.ErrorAs(t, err, &blocked, tc.url)
		assert.Equal(t, tc.pattern, blocked.Pattern)
		assert.Equal(t, tc.url, blocked.URL)
	}
}

func TestBlocklist_SimilarDomainsPass(t *testing.T) {
	bl := NewBlocklist([]string{"maliciousbook.com"})

	for _, url := range []string{
		"https://example.com/",
		"https://notmaliciousbook.com/",      // suffix of the name, not a subdomain
		"https://maliciousbook.com.evil.io/", // pattern embedded mid-host
	} {
		assert.NoError(t, bl.Check(url), url)
	}
}

func TestBlocklist_EmptyListAllowsEverything(t *testing.T) {
	bl := NewBlocklist(nil)
	assert.NoError(t, bl.Check("https://anywhere.example/"))
}

func TestBlocklist_UnparseableURL(t *testing.T) {
	bl := NewBlocklist([]string{"maliciousbook.com"})
	assert.Error(t, bl.Check("http://%zz invalid"))
}
