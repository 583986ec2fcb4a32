package config

import "strings"

// NormalizeHost turns a user-supplied host into a base URL: a missing scheme
// defaults to https, an accidentally repeated scheme ("https://https://x")
// collapses to the first one, and trailing slashes are removed.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	first := strings.Index(host, "://")
	switch {
	case first < 0:
		host = "https://" + host
	case first == 0:
		host = "https" + host[strings.LastIndex(host, "://"):]
	default:
		last := strings.LastIndex(host, "://")
		host = host[:first] + host[last:]
	}
	return strings.TrimRight(host, "/")
}
