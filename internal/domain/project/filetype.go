package project

import (
	"fmt"
	"strings"
)

// Kind is the role a file plays when a project is assembled into one document.
type Kind string

const (
	KindMarkup    Kind = "markup"
	KindStyle     Kind = "style"
	KindScript    Kind = "script"
	KindAuxiliary Kind = "auxiliary"
	KindOther     Kind = "other"
)

// KindOf classifies a file by the lowercased extension of its name.
func KindOf(name string) Kind {
	n := strings.ToLower(name)
	switch {
	case strings.HasSuffix(n, ".html"), strings.HasSuffix(n, ".htm"):
		return KindMarkup
	case strings.HasSuffix(n, ".css"):
		return KindStyle
	case strings.HasSuffix(n, ".js"):
		return KindScript
	case strings.HasSuffix(n, ".py"):
		return KindAuxiliary
	default:
		return KindOther
	}
}

// MimeTypeFor returns the default MIME type for a file name.
func MimeTypeFor(name string) string {
	switch KindOf(name) {
	case KindMarkup:
		return "text/html"
	case KindStyle:
		return "text/css"
	case KindScript:
		return "application/javascript"
	case KindAuxiliary:
		return "text/x-python"
	default:
		return "text/plain"
	}
}

// FormatSize renders a byte count as "0 Bytes", "1.5 KB", "2 MB" and so on.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	return s + " " + units[i]
}
