package stomp

import (
	"crypto/tls"
	"log"
	"net"
	"strconv"
	"time"
)

// SessionBuilder is the entry point a consuming application uses to
// construct a Session: a uniform With-style option chain terminated by
// Start. Grounded on original_source/src/session_builder.rs's
// SessionBuilder/with/start shape and on djoyahoy-stomp/config.go's
// Dial/TLSConfig/TLSHandshakeTimeout grouping for transport-level options.
type SessionBuilder struct {
	host string
	port int

	dial                func(network, addr string) (net.Conn, error)
	tlsConfig           *tls.Config
	tlsHandshakeTimeout time.Duration

	login, passcode string
	heartbeatTxMs   int
	heartbeatRxMs   int
	headers         HeaderList
	suppressed      []string
	logger          *log.Logger
}

// NewSessionBuilder starts a builder for a session to host:port.
func NewSessionBuilder(host string, port int) *SessionBuilder {
	return &SessionBuilder{host: host, port: port}
}

// WithCredentials sets the login/passcode sent on the CONNECT frame.
func (b *SessionBuilder) WithCredentials(login, passcode string) *SessionBuilder {
	b.login, b.passcode = login, passcode
	return b
}

// WithHeartBeat sets the client's requested heartbeat interval, in
// milliseconds, before negotiation with the server.
func (b *SessionBuilder) WithHeartBeat(txMs, rxMs int) *SessionBuilder {
	b.heartbeatTxMs, b.heartbeatRxMs = txMs, rxMs
	return b
}

// WithHeader adds a custom header to the CONNECT frame. Calling this twice
// with the same key appends both headers; last-wins ordering is not
// guaranteed, matching STOMP 1.2 (spec.md §4.5).
func (b *SessionBuilder) WithHeader(key, value string) *SessionBuilder {
	b.headers.Append(key, value)
	return b
}

// Suppress removes a default CONNECT header (e.g. "content-length") before
// the frame is sent.
func (b *SessionBuilder) Suppress(key string) *SessionBuilder {
	b.suppressed = append(b.suppressed, key)
	return b
}

// WithDial overrides the dial function used to open the TCP connection.
// If not set, net.Dial is used (djoyahoy-stomp/config.go's TransportConfig
// default).
func (b *SessionBuilder) WithDial(dial func(network, addr string) (net.Conn, error)) *SessionBuilder {
	b.dial = dial
	return b
}

// WithTLS layers a TLS handshake over the dialed connection.
func (b *SessionBuilder) WithTLS(config *tls.Config) *SessionBuilder {
	b.tlsConfig = config
	return b
}

// WithTLSHandshakeTimeout bounds how long the TLS handshake may take. Zero
// (the default) means no timeout.
func (b *SessionBuilder) WithTLSHandshakeTimeout(d time.Duration) *SessionBuilder {
	b.tlsHandshakeTimeout = d
	return b
}

// WithLogger overrides the session's diagnostic logger.
func (b *SessionBuilder) WithLogger(logger *log.Logger) *SessionBuilder {
	b.logger = logger
	return b
}

// Start dials the connection, constructs the Session, and launches its
// owning goroutine. The returned Session is in the Connecting state: that
// goroutine writes the CONNECT frame, and CONNECTED has not necessarily
// arrived yet — watch Events() for the Connected event.
func (b *SessionBuilder) Start() (*Session, error) {
	logger := b.logger
	if logger == nil {
		logger = defaultLogger()
	}

	s := &Session{
		id:                  newSessionID(),
		logger:              logger,
		dial:                b.dial,
		tlsConfig:           b.tlsConfig,
		tlsHandshakeTimeout: b.tlsHandshakeTimeout,
		addr:                net.JoinHostPort(b.host, strconv.Itoa(b.port)),
		login:               b.login,
		passcode:            b.passcode,
		clientTxMs:          b.heartbeatTxMs,
		clientRxMs:          b.heartbeatRxMs,
		extraHeaders:        b.headers.Clone(),
		suppressed:          append([]string(nil), b.suppressed...),
		events:              make(chan Event, 16),
		commands:            make(chan *outboundRequest),
		done:                make(chan struct{}),
		subIDs:              newSubscriptionIDAllocator(),
		txIDs:               newTransactionIDAllocator(),
		receiptIDs:          newReceiptIDAllocator(),
	}

	conn, err := s.dialNew()
	if err != nil {
		return nil, err
	}

	logger.Printf("session %s connecting to %s", s.id, s.addr)
	go s.run(conn)
	return s, nil
}

// MessageBuilder builds an outbound SEND frame. Grounded on
// original_source/src/message_builder.rs's with/send shape.
type MessageBuilder struct {
	session     *Session
	destination string
	body        []byte
	headers     HeaderList
	suppressed  []string
	receipt     bool
}

// WithHeader adds a custom header to the SEND frame.
func (m *MessageBuilder) WithHeader(key, value string) *MessageBuilder {
	m.headers.Append(key, value)
	return m
}

// WithContentType is shorthand for WithHeader(HeaderContentType, mime).
func (m *MessageBuilder) WithContentType(mime string) *MessageBuilder {
	return m.WithHeader(HeaderContentType, mime)
}

// Suppress removes a default SEND header (e.g. the automatic
// content-length) before the frame is sent.
func (m *MessageBuilder) Suppress(key string) *MessageBuilder {
	m.suppressed = append(m.suppressed, key)
	return m
}

// GenerateReceipt allocates a receipt id, adds a "receipt" header, and
// registers the outstanding receipt so a matching RECEIPT produces a
// Receipt event.
func (m *MessageBuilder) GenerateReceipt() *MessageBuilder {
	m.receipt = true
	return m
}

// Send enqueues the frame; it does not wait for a receipt even if
// GenerateReceipt was called (spec.md §4.5).
func (m *MessageBuilder) Send() error {
	f := SendFrame(m.destination, m.body)
	for _, h := range m.headers {
		f.Headers.Append(h.Key, h.Value)
	}
	for _, key := range m.suppressed {
		f.Headers.RemoveAll(key)
	}
	receiptID := ""
	if m.receipt {
		receiptID = m.session.receiptIDs.allocate()
		f.Headers.Append(HeaderReceipt, receiptID)
	}
	return m.session.doSend(f, receiptID)
}

// SubscriptionBuilder builds a SUBSCRIBE frame and, on Start, registers the
// resulting Subscription. Grounded on
// original_source/src/subscription_builder.rs's with/start shape.
type SubscriptionBuilder struct {
	session     *Session
	destination string
	ackMode     AckMode
	headers     HeaderList
	suppressed  []string
	receipt     bool
}

// WithAckMode sets the subscription's acknowledgement policy. The default
// is AckAuto.
func (b *SubscriptionBuilder) WithAckMode(mode AckMode) *SubscriptionBuilder {
	b.ackMode = mode
	return b
}

// WithHeader adds a custom header to the SUBSCRIBE frame.
func (b *SubscriptionBuilder) WithHeader(key, value string) *SubscriptionBuilder {
	b.headers.Append(key, value)
	return b
}

// Suppress removes a default SUBSCRIBE header before the frame is sent.
func (b *SubscriptionBuilder) Suppress(key string) *SubscriptionBuilder {
	b.suppressed = append(b.suppressed, key)
	return b
}

// GenerateReceipt allocates a receipt id for the SUBSCRIBE frame, just as
// MessageBuilder.GenerateReceipt does for SEND.
func (b *SubscriptionBuilder) GenerateReceipt() *SubscriptionBuilder {
	b.receipt = true
	return b
}

// Start allocates a subscription id, sends SUBSCRIBE, inserts the
// Subscription into the session's registry, and returns the id.
func (b *SubscriptionBuilder) Start() (string, error) {
	id := b.session.subIDs.allocate()
	f := SubscribeFrame(id, b.destination, b.ackMode)
	for _, h := range b.headers {
		f.Headers.Append(h.Key, h.Value)
	}
	for _, key := range b.suppressed {
		f.Headers.RemoveAll(key)
	}
	receiptID := ""
	if b.receipt {
		receiptID = b.session.receiptIDs.allocate()
		f.Headers.Append(HeaderReceipt, receiptID)
	}
	sub := &Subscription{
		id:          id,
		destination: b.destination,
		ackMode:     b.ackMode,
		headers:     b.headers.Clone(),
	}
	if err := b.session.doSubscribe(sub, f, receiptID); err != nil {
		return "", err
	}
	return id, nil
}
