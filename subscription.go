package stomp

// AckMode is the acknowledgement policy a subscription was created with.
type AckMode string

const (
	// AckAuto means the broker considers every delivered MESSAGE
	// acknowledged the instant it is sent; the client never sends ACK/NACK.
	AckAuto AckMode = "auto"

	// AckClient means a single ACK acknowledges that message and every
	// message delivered before it on the same subscription.
	AckClient AckMode = "client"

	// AckClientIndividual means each MESSAGE must be acknowledged
	// individually.
	AckClientIndividual AckMode = "client-individual"
)

// Subscription is an active server-side registration routing messages on a
// destination to this session under id. It is owned exclusively by the
// session's run goroutine (spec forbids locking internal session state), so
// unlike the teacher's Subscription it carries no atomic state or channel of
// its own — it is active exactly while it is present in the session's map.
type Subscription struct {
	id          string
	destination string
	ackMode     AckMode
	headers     HeaderList
}

// Id returns the subscription's library-generated id ("stomp-rs/<n>").
func (s *Subscription) Id() string { return s.id }

// Destination returns the destination this subscription was created for.
func (s *Subscription) Destination() string { return s.destination }

// AckMode returns the ack mode this subscription was created with.
func (s *Subscription) AckMode() AckMode { return s.ackMode }

// Headers returns the extra headers the SUBSCRIBE frame carried, beyond
// id/destination/ack.
func (s *Subscription) Headers() HeaderList { return s.headers }

// AckOrNack is the acknowledgement decision passed to
// Session.AcknowledgeFrame, grounded on original_source/src/subscription.rs's
// AckOrNack enum (Ack, Nack).
type AckOrNack int

const (
	Ack AckOrNack = iota
	Nack
)
