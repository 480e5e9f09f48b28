package stomp

// DisconnectReason explains why a session reached its terminal state.
// Exactly one Disconnected event, carrying one of these, is emitted before
// a session's event channel is closed (spec.md §7).
type DisconnectReason int

const (
	// ConnectFailed means the CONNECT frame could not be written, the
	// stream failed before CONNECTED arrived, or a Reconnect attempt failed
	// (which can happen after an earlier Connected event).
	ConnectFailed DisconnectReason = iota
	// RecvFailed means a stream read failed, including a decode error
	// (the byte-stream is no longer trustworthy once framing breaks).
	RecvFailed
	// SendFailed means a stream write failed.
	SendFailed
	// ClosedByOtherSide means the peer cleanly closed the connection (EOF).
	ClosedByOtherSide
	// HeartbeatTimeout means the negotiated rx-heartbeat deadline elapsed
	// with no inbound bytes.
	HeartbeatTimeout
	// Requested means Disconnect was called and the broker acknowledged
	// the graceful DISCONNECT with the matching RECEIPT.
	Requested
)

func (r DisconnectReason) String() string {
	switch r {
	case ConnectFailed:
		return "connect failed"
	case RecvFailed:
		return "recv failed"
	case SendFailed:
		return "send failed"
	case ClosedByOtherSide:
		return "closed by other side"
	case HeartbeatTimeout:
		return "heartbeat timeout"
	case Requested:
		return "requested"
	default:
		return "unknown"
	}
}

// Event is the typed sum type emitted over a Session's event channel. It
// replaces the source's per-subscription Handler-trait dispatch
// (on_connected/on_message/on_receipt/on_error/on_disconnected) with one
// variant per inbound frame kind so applications match on the variant
// instead of registering callbacks (spec.md §9).
type Event interface {
	isEvent()
}

// Connected is emitted once the CONNECT/CONNECTED handshake completes and
// precedes any Message/Receipt/ErrorFrame event.
type Connected struct {
	Frame *Frame
}

func (Connected) isEvent() {}

// Message is emitted for a MESSAGE frame whose subscription header matches
// an active subscription.
type Message struct {
	Destination string
	AckMode     AckMode
	Frame       *Frame
}

func (Message) isEvent() {}

// Receipt is emitted when a RECEIPT frame's receipt-id matches an
// outstanding receipt. Original is the frame that requested the receipt.
type Receipt struct {
	Id       string
	Original *Frame
	Frame    *Frame
}

func (Receipt) isEvent() {}

// ErrorFrame is emitted for a broker-originated ERROR frame. The session
// remains Connected; a Disconnected event typically follows once the
// broker closes the TCP connection.
type ErrorFrame struct {
	Frame *Frame
}

func (ErrorFrame) isEvent() {}

// SubscriptionlessFrame is emitted for a MESSAGE whose subscription header
// does not match any subscription this session still has registered.
type SubscriptionlessFrame struct {
	Frame *Frame
}

func (SubscriptionlessFrame) isEvent() {}

// UnknownFrame is emitted for an inbound command outside
// {CONNECTED, MESSAGE, RECEIPT, ERROR}; it does not terminate the session.
type UnknownFrame struct {
	Frame *Frame
}

func (UnknownFrame) isEvent() {}

// Disconnected is the terminal event. Exactly one is emitted per session,
// after which the event channel is closed and the session goroutine exits.
type Disconnected struct {
	Reason DisconnectReason
}

func (Disconnected) isEvent() {}
