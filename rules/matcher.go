package rules

import (
	"net/url"
	"strings"
)

// Matches reports whether the profile applies to rawURL. A host entry
// matches the exact host or any subdomain of it; an entry with a path
// ("x.com/i/grok") also requires the URL path to start with that path.
func (p *Profile) Matches(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := normalizeDomain(parsed.Hostname())

	for _, entry := range p.Hosts {
		entryHost, entryPath, _ := strings.Cut(entry, "/")
		entryHost = normalizeDomain(entryHost)
		if host != entryHost && !strings.HasSuffix(host, "."+entryHost) {
			continue
		}
		if entryPath != "" && !strings.HasPrefix(parsed.Path, "/"+entryPath) {
			continue
		}
		return true
	}
	return false
}

// normalizeDomain ensures consistent domain format.
func normalizeDomain(domain string) string {
	domain = strings.ToLower(domain)
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}
