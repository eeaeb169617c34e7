package preview

import (
	"encoding/base64"
	"net/url"
	"strings"
	"unicode/utf8"
)

// EncodeDataURL encodes data as a base64 data URL with the given MIME type.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL decodes an inline payload of the form data:<mime>;base64,<payload>
// into text. The payload is split on the first comma and the decoded bytes
// are interpreted as UTF-8. Decoding is best-effort: malformed base64 is
// retried leniently, and bytes that are not valid UTF-8 are mapped one
// byte per character.
func DecodeDataURL(s string) string {
	header, payload, found := strings.Cut(s, ",")
	if !found {
		// No header: treat the whole string as the payload.
		payload, header = s, ""
	}

	if header != "" && !strings.HasSuffix(strings.ToLower(header), ";base64") {
		if text, err := url.PathUnescape(payload); err == nil {
			return text
		}
		return payload
	}

	raw, ok := decodeBase64(payload)
	if !ok {
		return payload
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	return latin1(raw)
}

func decodeBase64(payload string) ([]byte, bool) {
	if b, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return b, true
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)
	cleaned = strings.TrimRight(cleaned, "=")
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(cleaned); err == nil {
			return b, true
		}
	}
	return nil, false
}

func latin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
