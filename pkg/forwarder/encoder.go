package forwarder

import (
	"net/url"
	"sort"
	"strings"
)

// ThreadIDKey is the reserved payload key carrying the device-local SMS
// thread id. It is internal and must never leave the device: both encoders
// strip it unconditionally.
const ThreadIDKey = "thread_id"

// EncodeQuery turns a key-value mapping into a URL query string of the form
// "?k1=v1&k2=v2&". Values are percent-encoded with %20 for spaces; keys are
// emitted in sorted order. An empty mapping yields "?".
func EncodeQuery(fields map[string]string) string {
	return "?" + EncodePairs(fields)
}

// EncodePairs encodes the mapping as "k1=v1&k2=v2&" without the leading
// question mark, the shape used for form bodies. The trailing ampersand is
// kept so the managed relay can append its literal pairing parameters.
func EncodePairs(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == ThreadIDKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(escape(fields[k]))
		b.WriteByte('&')
	}
	return b.String()
}

// escape percent-encodes a value per URI component rules. url.QueryEscape
// writes spaces as '+', which not every callback endpoint decodes; the wire
// format requires %20.
func escape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
