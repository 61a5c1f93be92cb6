package webhook

import (
	"bytes"

	"github.com/tidwall/gjson"
)

const (
	redacted    = `"[REDACTED]"`
	unparseable = `"<unparseable payload>"`
)

// redactedKeys are the credential-bearing members a payload may carry, at any depth.
var redactedKeys = map[string]bool{
	"accessToken":   true,
	"access_token":  true,
	"refresh_token": true,
}

type span struct {
	start, end int
	raw        string
}

// RedactPayload returns a copy of payload safe to log. Every credential member is replaced,
// repeated keys included, and everything else is left byte for byte. Payloads that are
// not JSON are dropped entirely.
func RedactPayload(payload []byte) []byte {
	if !gjson.ValidBytes(payload) {
		return []byte(unparseable)
	}
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	offset := len(payload) - len(trimmed)

	var spans []span
	collectCredentials(gjson.ParseBytes(trimmed), &spans)

	out := make([]byte, 0, len(payload))
	last := 0
	for _, sp := range spans {
		start, end := sp.start+offset, sp.end+offset
		if start < last || end > len(payload) || string(payload[start:end]) != sp.raw {
			return []byte(unparseable)
		}
		out = append(out, payload[last:start]...)
		out = append(out, redacted...)
		last = end
	}
	return append(out, payload[last:]...)
}

// collectCredentials records, in document order, the byte span of every credential value.
// ForEach visits duplicate keys, which a path lookup would not.
func collectCredentials(value gjson.Result, spans *[]span) {
	if !value.IsObject() && !value.IsArray() {
		return
	}
	value.ForEach(func(key, member gjson.Result) bool {
		if value.IsObject() && redactedKeys[key.Str] {
			*spans = append(*spans, span{start: member.Index, end: member.Index + len(member.Raw), raw: member.Raw})
			return true
		}
		collectCredentials(member, spans)
		return true
	})
}
