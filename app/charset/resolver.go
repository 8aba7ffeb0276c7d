package charset

import (
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const DefaultEncoding = "utf8"

var encodingRegex = regexp.MustCompile(`(?i)(encoding|charset)\s*=\s*(\S+)`)

var supportedEncodings = map[string]bool{
	"ascii":   true,
	"utf8":    true,
	"utf16le": true,
	"ucs2":    true,
	"base64":  true,
	"latin1":  true,
	"binary":  true,
	"hex":     true,
}

var encodingAliases = map[string]string{
	"utf-8":      "utf8",
	"iso-8859-1": "latin1",
}

// Resolve picks the encoding named by a Content-Type header. Anything it
// does not recognize resolves to DefaultEncoding.
func Resolve(contentType string) string {
	match := encodingRegex.FindStringSubmatch(contentType)
	if match == nil {
		return DefaultEncoding
	}

	name := Normalize(match[2])
	if !supportedEncodings[name] {
		slog.Debug("Unsupported encoding, using default", "encoding", match[2], "default", DefaultEncoding)
		return DefaultEncoding
	}
	return name
}

// Declared reports whether a Content-Type header names an encoding at all.
func Declared(contentType string) bool {
	return encodingRegex.MatchString(contentType)
}

// Normalize lowercases an encoding label and applies the short aliases.
func Normalize(label string) string {
	name := strings.ToLower(strings.TrimSpace(label))
	if alias, ok := encodingAliases[name]; ok {
		return alias
	}
	return name
}

func IsSupported(name string) bool {
	return supportedEncodings[name]
}

// Decode turns a body into text the way the named encoding reads bytes.
// base64 and hex produce the encoded form of the bytes.
func Decode(data []byte, name string) string {
	switch name {
	case "ascii":
		masked := make([]byte, len(data))
		for i, b := range data {
			masked[i] = b & 0x7f
		}
		return string(masked)
	case "latin1", "binary":
		return decodeWith(charmap.ISO8859_1, data)
	case "utf16le", "ucs2":
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data)
	case "base64":
		return base64.StdEncoding.EncodeToString(data)
	case "hex":
		return hex.EncodeToString(data)
	default:
		return decodeWith(unicode.UTF8, data)
	}
}

func decodeWith(enc encoding.Encoding, data []byte) string {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		slog.Debug("Decoder error, falling back to raw bytes", "error", err)
		return string(data)
	}
	return string(out)
}
