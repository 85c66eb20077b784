// Package privacy masks personally identifiable values before they reach logs,
// metrics labels, or audit trails.
package privacy

import (
	"fmt"
	"net/netip"
	"strings"
	"unicode/utf8"
)

// AnonymizeIP truncates an address to its network portion: IPv4 keeps the /24
// ("192.168.1.47" -> "192.168.1.0") and IPv6 keeps the /48
// ("2001:db8:85a3::8a2e:370:7334" -> "2001:0db8:85a3::").
//
// Returns "unknown" for empty input and "invalid" for anything unparseable.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	if addr.Is4() {
		v4 := addr.As4()
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	v6 := addr.As16()
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		v6[0], v6[1],
		v6[2], v6[3],
		v6[4], v6[5])
}

// MaskName keeps the first rune of each word of an owner name and replaces the
// rest with '*' ("Jane Doe" -> "J*** D**"). Empty names stay empty.
func MaskName(name string) string {
	fields := strings.Fields(name)
	masked := make([]string, 0, len(fields))
	for _, f := range fields {
		first, size := utf8.DecodeRuneInString(f)
		rest := utf8.RuneCountInString(f[size:])
		masked = append(masked, string(first)+strings.Repeat("*", rest))
	}
	return strings.Join(masked, " ")
}
