package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GenerateArchiveFilename creates a standardized output archive filename
// Format: {source}_cubemap_{timestamp}.zip
func GenerateArchiveFilename(sourceName string) string {
	base := SanitizeBaseName(sourceName)
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%s_cubemap_%s.zip", base, timestamp)
}

// SanitizeBaseName strips the extension and any path or URL components from a
// source name and replaces filename-hostile characters with underscores
func SanitizeBaseName(name string) string {
	// Strip query strings from URLs before taking the base
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "panorama"
	}

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
