package token

import "strings"

const (
	ipfsGateway   = "https://ipfs.io/ipfs/"
	tokenListBase = "https://token.jup.ag/"
)

// NormalizeIconURL приводит ссылку на иконку к https.
func NormalizeIconURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "ipfs://"):
		return ipfsGateway + strings.TrimPrefix(strings.TrimPrefix(u, "ipfs://"), "ipfs/")
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "data:"):
		return u
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	default:
		return tokenListBase + strings.TrimPrefix(u, "/")
	}
}
