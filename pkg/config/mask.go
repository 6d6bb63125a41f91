package config

import "strings"

// MaskCredential renders a credential safe for logs, keeping two characters at
// each end: "hunter22" -> "hu****22".
func MaskCredential(value string) string {
	const visible = 2
	if value == "" {
		return "<empty>"
	}
	if len(value) <= visible*2 {
		return strings.Repeat("*", len(value))
	}
	return value[:visible] + strings.Repeat("*", len(value)-visible*2) + value[len(value)-visible:]
}
