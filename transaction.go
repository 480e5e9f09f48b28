package stomp

// Transaction is a scoped wrapper emitting BEGIN / SEND(with a transaction
// header) / COMMIT|ABORT. It borrows the Session for its lifetime; Commit
// and Abort are terminal and consume it. Dropping a Transaction without
// calling either does NOT auto-abort (documented contract, spec.md §4.6);
// callers must be explicit.
type Transaction struct {
	id      string
	session *Session
	done    bool
}

// Id returns the transaction's library-generated id ("tx/<n>").
func (t *Transaction) Id() string { return t.id }

// Message starts a MessageBuilder for destination/body that, on Send, is
// tagged with this transaction's id instead of being sent standalone.
func (t *Transaction) Message(destination string, body []byte) *MessageBuilder {
	return &MessageBuilder{
		session:     t.session,
		destination: destination,
		body:        body,
		headers:     HeaderList{{Key: HeaderTransaction, Value: t.id}},
	}
}

// Commit sends COMMIT and consumes the transaction. It does not wait for a
// receipt. Calling Commit on an already-terminal transaction returns
// ErrTxDone.
func (t *Transaction) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return t.session.sendControlFrame(CommitFrame(t.id))
}

// Abort sends ABORT and consumes the transaction. Unlike Commit, Abort on an
// already-terminal transaction is a no-op returning nil, so it is safe to
// call unconditionally from a deferred cleanup after a successful Commit.
func (t *Transaction) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.session.sendControlFrame(AbortFrame(t.id))
}
