package launcher

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// TunnelMarker identifies the line on which the tunnel client announces its
// public URL.
const TunnelMarker = "trycloudflare.com"

// ExtractTunnelURL returns the URL announced on line, starting at the first
// "http" and ending at the next whitespace or box-drawing border.
func ExtractTunnelURL(line string) (string, bool) {
	if !strings.Contains(line, TunnelMarker) {
		return "", false
	}
	start := strings.Index(line, "http")
	if start < 0 {
		return "", false
	}
	rest := line[start:]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || r == '|'
	})
	if end >= 0 {
		rest = rest[:end]
	}
	if !strings.Contains(rest, TunnelMarker) {
		return "", false
	}
	return rest, true
}

// ScanTunnelOutput reads r line by line until EOF and calls found for every
// announced URL. The stream is drained completely so the client never blocks
// on a full pipe.
func ScanTunnelOutput(r io.Reader, found func(url string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if url, ok := ExtractTunnelURL(scanner.Text()); ok {
			found(url)
		}
	}
	return scanner.Err()
}
