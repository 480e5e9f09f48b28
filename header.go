package stomp

import (
	"strings"
)

// Well-known STOMP header keys.
const (
	HeaderAcceptVersion = "accept-version"
	HeaderAck           = "ack"
	HeaderContentLength = "content-length"
	HeaderContentType   = "content-type"
	HeaderDestination   = "destination"
	HeaderHeartBeat     = "heart-beat"
	HeaderHost          = "host"
	HeaderId            = "id"
	HeaderLogin         = "login"
	HeaderMessageId     = "message-id"
	HeaderPasscode      = "passcode"
	HeaderReceipt       = "receipt"
	HeaderReceiptId     = "receipt-id"
	HeaderServer        = "server"
	HeaderSession       = "session"
	HeaderSubscription  = "subscription"
	HeaderTransaction   = "transaction"
	HeaderVersion       = "version"
	HeaderMessage       = "message"
)

// Header is a single (key, value) pair attached to a Frame. Both key and
// value are plain, unescaped strings; escaping only happens on the wire.
type Header struct {
	Key   string
	Value string
}

// HeaderList is an ordered sequence of headers. Order of insertion is
// preserved and duplicate keys are allowed, matching STOMP 1.2's
// first-header-wins lookup semantics.
type HeaderList []Header

// Append adds a header to the end of the list.
func (h *HeaderList) Append(key, value string) {
	*h = append(*h, Header{Key: key, Value: value})
}

// Get returns the value of the first header matching key, per STOMP 1.2's
// first-wins rule.
func (h HeaderList) Get(key string) (string, bool) {
	for _, header := range h {
		if header.Key == key {
			return header.Value, true
		}
	}
	return "", false
}

// RemoveAll drops every header matching key.
func (h *HeaderList) RemoveAll(key string) {
	filtered := (*h)[:0]
	for _, header := range *h {
		if header.Key != key {
			filtered = append(filtered, header)
		}
	}
	*h = filtered
}

// Clone returns an independent copy of the header list.
func (h HeaderList) Clone() HeaderList {
	clone := make(HeaderList, len(h))
	copy(clone, h)
	return clone
}

// Typed accessors for well-known headers. These all use first-match lookup.

func (h HeaderList) AcceptVersion() (string, bool) { return h.Get(HeaderAcceptVersion) }
func (h HeaderList) Ack() (string, bool)           { return h.Get(HeaderAck) }
func (h HeaderList) ContentType() (string, bool)   { return h.Get(HeaderContentType) }
func (h HeaderList) Destination() (string, bool)   { return h.Get(HeaderDestination) }
func (h HeaderList) Host() (string, bool)          { return h.Get(HeaderHost) }
func (h HeaderList) Id() (string, bool)            { return h.Get(HeaderId) }
func (h HeaderList) Login() (string, bool)         { return h.Get(HeaderLogin) }
func (h HeaderList) MessageId() (string, bool)     { return h.Get(HeaderMessageId) }
func (h HeaderList) Passcode() (string, bool)      { return h.Get(HeaderPasscode) }
func (h HeaderList) Receipt() (string, bool)       { return h.Get(HeaderReceipt) }
func (h HeaderList) ReceiptId() (string, bool)     { return h.Get(HeaderReceiptId) }
func (h HeaderList) Server() (string, bool)        { return h.Get(HeaderServer) }
func (h HeaderList) Session() (string, bool)       { return h.Get(HeaderSession) }
func (h HeaderList) Subscription() (string, bool)  { return h.Get(HeaderSubscription) }
func (h HeaderList) Transaction() (string, bool)   { return h.Get(HeaderTransaction) }
func (h HeaderList) Version() (string, bool)       { return h.Get(HeaderVersion) }

// ContentLength parses the content-length header, if present. STOMP allows
// only unsigned values up to 2^32-1; anything larger or non-numeric is
// reported as !ok, leaving the caller to fall back to null-terminated
// framing or, for a decoder, to treat it as a protocol error.
func (h HeaderList) ContentLength() (n uint32, ok bool) {
	text, present := h.Get(HeaderContentLength)
	if !present {
		return 0, false
	}
	parsed, err := parseUint32(text)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// HeartBeat parses the heart-beat header's "<tx_ms>,<rx_ms>" value. Any
// parse failure (missing header, malformed integers) yields (0, 0), which
// means "no heartbeat advertised", per spec.
func (h HeaderList) HeartBeat() (txMs, rxMs int) {
	text, ok := h.Get(HeaderHeartBeat)
	if !ok {
		return 0, 0
	}
	parts := strings.SplitN(text, ",", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	tx, errTx := parseUint32(parts[0])
	rx, errRx := parseUint32(parts[1])
	if errTx != nil || errRx != nil {
		return 0, 0
	}
	return int(tx), int(rx)
}

// encodeHeaderValue applies the STOMP 1.2 escape rules: \ -> \\, \r -> \r
// (the literal two-byte sequence), \n -> \n, : -> \c. Each rune is escaped
// in a single pass, so the output of one escape is never escaped again.
func encodeHeaderValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case ':':
			b.WriteString(`\c`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// decodeHeaderValue reverses encodeHeaderValue. Any escape sequence other
// than \\, \r, \n, \c is a decode error.
func decodeHeaderValue(value string) (string, error) {
	var b strings.Builder
	b.Grow(len(value))
	runes := []rune(value)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		i++
		if i >= len(runes) {
			return "", errUnterminatedEscape
		}
		switch runes[i] {
		case '\\':
			b.WriteRune('\\')
		case 'r':
			b.WriteRune('\r')
		case 'n':
			b.WriteRune('\n')
		case 'c':
			b.WriteRune(':')
		default:
			return "", errInvalidEscape
		}
	}
	return b.String(), nil
}

// encodeHeaderLine renders a single "key:value" wire segment (without the
// trailing newline).
func encodeHeaderLine(h Header) string {
	return encodeHeaderValue(h.Key) + ":" + encodeHeaderValue(h.Value)
}

// decodeHeaderLine splits a raw "key:value" wire segment on the first
// unescaped colon and unescapes both halves. A line with no unescaped colon
// is a decode error.
func decodeHeaderLine(line string) (Header, error) {
	idx := findUnescapedColon(line)
	if idx < 0 {
		return Header{}, errMissingColon
	}
	rawKey, rawValue := line[:idx], line[idx+1:]
	key, err := decodeHeaderValue(rawKey)
	if err != nil {
		return Header{}, err
	}
	value, err := decodeHeaderValue(rawValue)
	if err != nil {
		return Header{}, err
	}
	return Header{Key: key, Value: value}, nil
}

// findUnescapedColon returns the index of the first ':' in s that is not
// itself the product of an escape sequence being scanned over, i.e. the
// first colon not preceded by an odd run of backslashes.
func findUnescapedColon(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == ':' {
			return i
		}
	}
	return -1
}
