package stomp

import (
	"crypto/tls"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
)

// heartbeatGrace is the multiplier applied to the negotiated rx interval to
// get the rx-deadline: the session expects a frame or heartbeat at least
// every heartbeatGrace * agreed_rx ms (spec.md §4.4, fixed at 2.0 and not
// configurable per spec.md §9).
const heartbeatGrace = 2

// opKind identifies what an outboundRequest asks the session's run
// goroutine to do. Every field the run goroutine needs to mutate its own
// state (subs, receipts) travels on the same channel as the frame to write,
// so the command channel remains the only synchronization point (spec.md
// §5) and run never locks.
type opKind int

const (
	opSend opKind = iota
	opSubscribe
	opUnsubscribe
	opControl
	opReconnect
)

// outboundRequest is handed from any application goroutine to the session's
// run loop over Session.commands.
type outboundRequest struct {
	kind      opKind
	frame     *Frame
	sub       *Subscription // set for opSubscribe
	subID     string        // set for opUnsubscribe
	receiptID string        // "" means no receipt registration
	result    chan error    // nil if caller does not want the write outcome
}

// Session is a STOMP 1.2 session: one TCP connection, one negotiated
// heartbeat pair, and the subscription/receipt state that goes with them.
// All of that state is owned exclusively by the goroutine started in
// run(); every other method only ever sends a value over s.commands and,
// for blocking calls, waits on a reply channel. There is no mutex anywhere
// in Session (spec.md §5).
type Session struct {
	id     string
	logger *log.Logger

	dial                func(network, addr string) (net.Conn, error)
	tlsConfig           *tls.Config
	tlsHandshakeTimeout time.Duration
	addr                string

	login, passcode string
	clientTxMs      int
	clientRxMs      int
	extraHeaders    HeaderList
	suppressed      []string

	events   chan Event
	commands chan *outboundRequest
	done     chan struct{}

	subIDs     *idAllocator
	txIDs      *idAllocator
	receiptIDs *idAllocator
}

// Events returns the channel of typed events this session emits. It is
// closed exactly once, immediately after the terminal Disconnected event,
// per spec.md §7.
func (s *Session) Events() <-chan Event { return s.events }

// Message starts building an outbound SEND to destination.
func (s *Session) Message(destination string, body []byte) *MessageBuilder {
	return &MessageBuilder{session: s, destination: destination, body: body}
}

// Subscription starts building a SUBSCRIBE to destination.
func (s *Session) Subscription(destination string) *SubscriptionBuilder {
	return &SubscriptionBuilder{session: s, destination: destination, ackMode: AckAuto}
}

// Unsubscribe sends UNSUBSCRIBE for id and drops it from the local
// subscription registry without waiting for a receipt (spec.md §3).
func (s *Session) Unsubscribe(id string) error {
	result := make(chan error, 1)
	if !s.post(&outboundRequest{
		kind:   opUnsubscribe,
		frame:  UnsubscribeFrame(id),
		subID:  id,
		result: result,
	}) {
		return ErrSessionClosed
	}
	return <-result
}

// AcknowledgeFrame reads the "ack" header from frame and, if present, sends
// an ACK or NACK frame carrying that id. Auto-mode subscriptions never
// carry an ack header, so this is a no-op for them (spec.md §4.4).
func (s *Session) AcknowledgeFrame(frame *Frame, decision AckOrNack) error {
	ackID, ok := frame.Headers.Ack()
	if !ok {
		return nil
	}
	var f *Frame
	if decision == Ack {
		f = AckFrame(ackID)
	} else {
		f = NackFrame(ackID)
	}
	return s.sendControlFrame(f)
}

// BeginTransaction allocates a transaction id and sends BEGIN.
func (s *Session) BeginTransaction() (*Transaction, error) {
	id := s.txIDs.allocate()
	if err := s.sendControlFrame(BeginFrame(id)); err != nil {
		return nil, err
	}
	return &Transaction{id: id, session: s}, nil
}

// Disconnect sends a graceful DISCONNECT tagged with the sentinel receipt
// id; the run loop transitions to Disconnected(Requested) once the
// matching RECEIPT arrives.
func (s *Session) Disconnect() error {
	return s.sendControlFrame(DisconnectFrame())
}

// Reconnect shuts down the current byte-stream and establishes a new one to
// the same host/port, re-running the CONNECT handshake on success.
// Subscriptions and outstanding receipts from the prior connection are not
// restored (spec.md §4.4): the application must re-issue them once it
// observes a new Connected event.
func (s *Session) Reconnect() error {
	result := make(chan error, 1)
	if !s.post(&outboundRequest{kind: opReconnect, result: result}) {
		return ErrSessionClosed
	}
	return <-result
}

func (s *Session) sendControlFrame(f *Frame) error {
	result := make(chan error, 1)
	if !s.post(&outboundRequest{kind: opControl, frame: f, result: result}) {
		return ErrSessionClosed
	}
	return <-result
}

// doSend is used by MessageBuilder.Send; receiptID is "" when the caller
// did not request a receipt.
func (s *Session) doSend(f *Frame, receiptID string) error {
	result := make(chan error, 1)
	if !s.post(&outboundRequest{kind: opSend, frame: f, receiptID: receiptID, result: result}) {
		return ErrSessionClosed
	}
	return <-result
}

// doSubscribe is used by SubscriptionBuilder.Start.
func (s *Session) doSubscribe(sub *Subscription, f *Frame, receiptID string) error {
	result := make(chan error, 1)
	if !s.post(&outboundRequest{kind: opSubscribe, frame: f, sub: sub, receiptID: receiptID, result: result}) {
		return ErrSessionClosed
	}
	return <-result
}

// post hands req to the run loop, returning false instead of blocking
// forever if the session has already reached its terminal state.
func (s *Session) post(req *outboundRequest) bool {
	select {
	case s.commands <- req:
		return true
	case <-s.done:
		return false
	}
}

func newSessionID() string {
	return uuid.New().String()
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "stomp: ", log.LstdFlags)
}

// readChunk is what the reader goroutine hands back to run: either a slice
// of freshly read bytes, or a terminal error (including io.EOF).
type readChunk struct {
	gen  int
	data []byte
	err  error
}

func readLoop(conn net.Conn, gen int, out chan<- readChunk) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			out <- readChunk{gen: gen, data: data}
		}
		if err != nil {
			out <- readChunk{gen: gen, err: err}
			return
		}
	}
}

func writeFrame(conn net.Conn, f *Frame) error {
	_, err := conn.Write(Encode(CompleteFrame{Frame: f}))
	return err
}

// connState holds everything the run loop owns for the lifetime of one
// underlying connection. A reconnect discards one and builds a fresh one.
type connState struct {
	gen           int
	conn          net.Conn
	decoder       *Decoder
	accum         []byte
	subs          map[string]*Subscription
	receipts      map[string]*Frame
	connected     bool
	negotiatedTx  int
	negotiatedRx  int
	txTimer       *time.Timer
	rxTimer       *time.Timer
	txTimerC      <-chan time.Time
	rxTimerC      <-chan time.Time
}

func newConnState(gen int, conn net.Conn) *connState {
	return &connState{
		gen:      gen,
		conn:     conn,
		decoder:  NewDecoder(),
		subs:     make(map[string]*Subscription),
		receipts: make(map[string]*Frame),
	}
}

// run is the session's single owning goroutine. It is started once from
// Start() and, across any number of reconnects, never returns until the
// session reaches a terminal Disconnected state.
func (s *Session) run(initial net.Conn) {
	readCh := make(chan readChunk)
	gen := 0
	cs := newConnState(gen, initial)
	go readLoop(cs.conn, cs.gen, readCh)

	finish := func(reason DisconnectReason) {
		if cs.txTimer != nil {
			cs.txTimer.Stop()
		}
		if cs.rxTimer != nil {
			cs.rxTimer.Stop()
		}
		cs.conn.Close()
		s.logger.Printf("session %s disconnected: %s", s.id, reason)
		s.events <- Disconnected{Reason: reason}
		close(s.events)
		close(s.done)
	}

	if err := writeFrame(cs.conn, s.buildConnectFrame()); err != nil {
		finish(ConnectFailed)
		return
	}

	reconnect := func(result chan<- error) bool {
		cs.conn.Close()
		newConn, err := s.dialNew()
		if err != nil {
			if result != nil {
				result <- err
			}
			finish(ConnectFailed)
			return true
		}
		gen++
		cs = newConnState(gen, newConn)
		go readLoop(cs.conn, cs.gen, readCh)
		if err := writeFrame(cs.conn, s.buildConnectFrame()); err != nil {
			if result != nil {
				result <- err
			}
			finish(ConnectFailed)
			return true
		}
		s.logger.Printf("session %s reconnected", s.id)
		if result != nil {
			result <- nil
		}
		return false
	}

	for {
		select {
		case chunk := <-readCh:
			if chunk.gen != cs.gen {
				continue // stale reader from a connection we already replaced
			}
			if chunk.err != nil {
				if chunk.err == io.EOF {
					finish(ClosedByOtherSide)
				} else if cs.connected {
					finish(RecvFailed)
				} else {
					finish(ConnectFailed)
				}
				return
			}
			cs.accum = append(cs.accum, chunk.data...)
			if done := s.drainTransmissions(cs, finish); done {
				return
			}

		case <-cs.txTimerC:
			if _, err := cs.conn.Write([]byte{'\n'}); err != nil {
				finish(SendFailed)
				return
			}
			cs.txTimer.Reset(time.Duration(cs.negotiatedTx) * time.Millisecond)

		case <-cs.rxTimerC:
			finish(HeartbeatTimeout)
			return

		case op := <-s.commands:
			if op.kind == opReconnect {
				if reconnect(op.result) {
					return
				}
				continue
			}
			if !cs.connected {
				// Sending before CONNECTED is a warning, not a panic or a
				// session-terminating failure (spec.md §7).
				s.logger.Printf("session %s: %s sent before session is connected", s.id, op.frame.Command)
				if op.result != nil {
					op.result <- ErrSessionNotConnected
				}
				continue
			}
			if op.kind == opUnsubscribe {
				if _, known := cs.subs[op.subID]; !known {
					if op.result != nil {
						op.result <- ErrUnsubscribeUnknown
					}
					continue
				}
				delete(cs.subs, op.subID)
			}
			if op.kind == opSubscribe {
				cs.subs[op.sub.id] = op.sub
			}
			if op.receiptID != "" {
				cs.receipts[op.receiptID] = op.frame
			}
			err := writeFrame(cs.conn, op.frame)
			if cs.txTimer != nil && cs.negotiatedTx > 0 {
				cs.txTimer.Reset(time.Duration(cs.negotiatedTx) * time.Millisecond)
			}
			if op.result != nil {
				op.result <- err
			}
			if err != nil {
				finish(SendFailed)
				return
			}
		}
	}
}

// drainTransmissions decodes everything currently available in cs.accum,
// updating session state and emitting events. It returns true if the run
// loop should exit (a terminal transition already happened).
func (s *Session) drainTransmissions(cs *connState, finish func(DisconnectReason)) bool {
	for {
		t, n, ok, err := cs.decoder.Decode(cs.accum)
		if err != nil {
			finish(RecvFailed)
			return true
		}
		if !ok {
			return false
		}
		cs.accum = cs.accum[n:]

		if cs.rxTimer != nil {
			cs.rxTimer.Reset(time.Duration(cs.negotiatedRx*heartbeatGrace) * time.Millisecond)
		}

		switch v := t.(type) {
		case HeartBeat:
			// rx deadline already reset above; no event.
		case CompleteFrame:
			if terminal := s.handleInboundFrame(cs, v.Frame, finish); terminal {
				return true
			}
		case ConnectionClosed:
			finish(ClosedByOtherSide)
			return true
		}
	}
}

func (s *Session) handleInboundFrame(cs *connState, f *Frame, finish func(DisconnectReason)) (terminal bool) {
	switch f.Command {
	case CmdConnected:
		s.negotiateHeartbeats(cs, f)
		cs.connected = true
		s.events <- Connected{Frame: f}

	case CmdMessage:
		subID, _ := f.Headers.Subscription()
		sub, known := cs.subs[subID]
		if known {
			s.events <- Message{Destination: sub.destination, AckMode: sub.ackMode, Frame: f}
		} else {
			s.events <- SubscriptionlessFrame{Frame: f}
		}

	case CmdReceipt:
		receiptID, _ := f.Headers.ReceiptId()
		if receiptID == DisconnectReceiptId {
			finish(Requested)
			return true
		}
		if original, found := cs.receipts[receiptID]; found {
			delete(cs.receipts, receiptID)
			s.events <- Receipt{Id: receiptID, Original: original, Frame: f}
		}

	case CmdError:
		s.events <- ErrorFrame{Frame: f}

	default:
		s.events <- UnknownFrame{Frame: f}
	}
	return false
}

// negotiateHeartbeats applies spec.md §4.4's select_heartbeat formula and
// arms both timers.
func (s *Session) negotiateHeartbeats(cs *connState, connected *Frame) {
	serverTx, serverRx := connected.Headers.HeartBeat()
	cs.negotiatedTx = selectHeartbeat(s.clientTxMs, serverRx)
	cs.negotiatedRx = selectHeartbeat(s.clientRxMs, serverTx)

	if cs.negotiatedTx > 0 {
		cs.txTimer = time.NewTimer(time.Duration(cs.negotiatedTx) * time.Millisecond)
		cs.txTimerC = cs.txTimer.C
	}
	if cs.negotiatedRx > 0 {
		cs.rxTimer = time.NewTimer(time.Duration(cs.negotiatedRx*heartbeatGrace) * time.Millisecond)
		cs.rxTimerC = cs.rxTimer.C
	}
}

// selectHeartbeat implements spec.md §8's heartbeat-selection law: given one
// side's requested interval and the other side's requested interval for the
// same direction, the agreed interval is 0 if either side declined,
// otherwise the larger of the two.
func selectHeartbeat(mine, theirs int) int {
	if mine == 0 || theirs == 0 {
		return 0
	}
	if mine > theirs {
		return mine
	}
	return theirs
}

func (s *Session) buildConnectFrame() *Frame {
	f := ConnectFrame(s.clientTxMs, s.clientRxMs)
	f.Headers.Append(HeaderHost, s.hostHeader())
	if s.login != "" {
		f.Headers.Append(HeaderLogin, s.login)
	}
	if s.passcode != "" {
		f.Headers.Append(HeaderPasscode, s.passcode)
	}
	for _, h := range s.extraHeaders {
		f.Headers.Append(h.Key, h.Value)
	}
	for _, key := range s.suppressed {
		f.Headers.RemoveAll(key)
	}
	return f
}

func (s *Session) hostHeader() string {
	host, _, err := net.SplitHostPort(s.addr)
	if err != nil || host == "" {
		return "/"
	}
	return host
}

// dialNew opens a fresh TCP connection to the session's address, layering
// on a TLS handshake (with timeout) when a TLS config was supplied. Ground
// truth: djoyahoy-stomp/client.go's Connect, which runs the handshake in a
// goroutine racing an optional timer so a stalled handshake cannot hang the
// caller forever.
func (s *Session) dialNew() (net.Conn, error) {
	dial := s.dial
	if dial == nil {
		dial = net.Dial
	}
	conn, err := dial("tcp", s.addr)
	if err != nil {
		return nil, err
	}

	if s.tlsConfig == nil {
		return conn, nil
	}

	tlsConn := tls.Client(conn, s.tlsConfig)
	errc := make(chan error, 1)
	var timer *time.Timer
	if s.tlsHandshakeTimeout != 0 {
		timer = time.AfterFunc(s.tlsHandshakeTimeout, func() {
			errc <- errTLSHandshakeTimeout
		})
	}
	go func() {
		err := tlsConn.Handshake()
		if timer != nil {
			timer.Stop()
		}
		errc <- err
	}()
	if err := <-errc; err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
