// Package scan locates entry blocks in RSS and Atom documents and decodes
// their fields by delimiter search instead of a full markup parser.
package scan

import "strings"

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// Extract returns the text strictly between the first startTag in content and
// the first endTag that follows it. The boolean is false when either tag is
// missing; a start tag without a matching end tag counts as missing.
func Extract(content, startTag, endTag string) (string, bool) {
	start := strings.Index(content, startTag)
	if start < 0 {
		return "", false
	}
	start += len(startTag)
	end := strings.Index(content[start:], endTag)
	if end < 0 {
		return "", false
	}
	return content[start : start+end], true
}

// ExtractField is Extract for field values: CDATA markers are removed and a
// miss yields the empty string.
func ExtractField(content, startTag, endTag string) string {
	value, ok := Extract(content, startTag, endTag)
	if !ok {
		return ""
	}
	return StripCDATA(value)
}

// StripCDATA removes every CDATA open and close marker, wherever it occurs.
func StripCDATA(value string) string {
	if !strings.Contains(value, cdataOpen) && !strings.Contains(value, cdataClose) {
		return value
	}
	value = strings.ReplaceAll(value, cdataOpen, "")
	return strings.ReplaceAll(value, cdataClose, "")
}
