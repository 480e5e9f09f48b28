package stomp

import (
	"bytes"
	"testing"
)

// TestDecodeHeartbeatOnlyStream covers scenario 1: a stream of nothing but
// heartbeats decodes as one HeartBeat consuming every byte, then reports
// incomplete.
func TestDecodeHeartbeatOnlyStream(t *testing.T) {
	d := NewDecoder()
	buf := []byte("\n\n\n")
	tr, n, ok, err := d.Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ok {
		t.Fatalf("Decode did not find a transmission in a heartbeat-only stream")
	}
	if n != len(buf) {
		t.Errorf("consumed %d bytes, want %d", n, len(buf))
	}
	if _, isHeartBeat := tr.(HeartBeat); !isHeartBeat {
		t.Errorf("got %T, want HeartBeat", tr)
	}

	_, _, ok, err = d.Decode(buf[n:])
	if err != nil {
		t.Fatalf("Decode on empty remainder: %v", err)
	}
	if ok {
		t.Errorf("Decode on empty remainder reported a transmission")
	}
}

// TestDecodeConnectedFrame covers the server half of scenario 2: a
// CONNECTED frame with a heart-beat header decodes to a frame whose headers
// are queryable via HeartBeat().
func TestDecodeConnectedFrame(t *testing.T) {
	wire := []byte("CONNECTED\nversion:1.2\nheart-beat:1000,3000\n\n\x00")
	d := NewDecoder()
	tr, n, ok, err := d.Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ok || n != len(wire) {
		t.Fatalf("Decode did not consume the whole CONNECTED frame: ok=%v n=%d", ok, n)
	}
	cf, isFrame := tr.(CompleteFrame)
	if !isFrame {
		t.Fatalf("got %T, want CompleteFrame", tr)
	}
	if cf.Frame.Command != CmdConnected {
		t.Errorf("command = %q, want CONNECTED", cf.Frame.Command)
	}
	serverTx, serverRx := cf.Frame.Headers.HeartBeat()
	if serverTx != 1000 || serverRx != 3000 {
		t.Errorf("heart-beat = (%d,%d), want (1000,3000)", serverTx, serverRx)
	}

	clientTx, clientRx := 5000, 2000
	agreedTx := selectHeartbeat(clientTx, serverRx)
	agreedRx := selectHeartbeat(clientRx, serverTx)
	if agreedTx != 5000 || agreedRx != 2000 {
		t.Errorf("negotiated (%d,%d), want (5000,2000)", agreedTx, agreedRx)
	}
}

// TestEncodeConnectFrame covers the client half of scenario 2.
func TestEncodeConnectFrame(t *testing.T) {
	f := ConnectFrame(5000, 2000)
	f.Headers.Append(HeaderHost, "h")
	want := "CONNECT\naccept-version:1.2\ncontent-length:0\nheart-beat:5000,2000\nhost:h\n\n\x00"
	got := string(Encode(CompleteFrame{Frame: f}))
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestDecodeMessageWithEmbeddedNull covers scenario 3: a MESSAGE frame whose
// content-length lets the body contain NUL bytes that are not frame
// terminators.
func TestDecodeMessageWithEmbeddedNull(t *testing.T) {
	wire := []byte("MESSAGE\nsubscription:stomp-rs/0\ndestination:/q/a\nmessage-id:m1\ncontent-length:3\n\nA\x00B\x00")
	d := NewDecoder()
	tr, n, ok, err := d.Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ok || n != len(wire) {
		t.Fatalf("Decode did not consume the whole MESSAGE frame: ok=%v n=%d len=%d", ok, n, len(wire))
	}
	cf := tr.(CompleteFrame)
	wantBody := []byte{0x41, 0x00, 0x42}
	if !bytes.Equal(cf.Frame.Body, wantBody) {
		t.Errorf("body = %v, want %v", cf.Frame.Body, wantBody)
	}
	dest, _ := cf.Frame.Headers.Destination()
	if dest != "/q/a" {
		t.Errorf("destination = %q, want /q/a", dest)
	}
	sub, _ := cf.Frame.Headers.Subscription()
	if sub != "stomp-rs/0" {
		t.Errorf("subscription = %q, want stomp-rs/0", sub)
	}
}

// TestDecodeIncrementalFeed checks that splitting a frame across many small
// Decode calls (as a real socket read loop would) produces the same result
// as decoding it in one shot, exercising the decoder's resumable state.
func TestDecodeIncrementalFeed(t *testing.T) {
	wire := []byte("MESSAGE\nsubscription:stomp-rs/0\ndestination:/q/a\nmessage-id:m1\ncontent-length:3\n\nA\x00B\x00")
	d := NewDecoder()
	var fed []byte
	var tr Transmission
	for i := 0; i < len(wire); i++ {
		fed = append(fed, wire[i])
		var n int
		var ok bool
		var err error
		tr, n, ok, err = d.Decode(fed)
		if err != nil {
			t.Fatalf("Decode at byte %d: %v", i, err)
		}
		if ok {
			fed = fed[n:]
			if i != len(wire)-1 {
				t.Fatalf("Decode reported complete after %d of %d bytes", i+1, len(wire))
			}
		}
	}
	if tr == nil {
		t.Fatal("never completed")
	}
	cf, ok := tr.(CompleteFrame)
	if !ok {
		t.Fatalf("got %T, want CompleteFrame", tr)
	}
	if !bytes.Equal(cf.Frame.Body, []byte{0x41, 0x00, 0x42}) {
		t.Errorf("body = %v", cf.Frame.Body)
	}
}

// TestDecodeNullTerminatedBody covers the no-content-length framing path:
// the body runs until the first NUL byte.
func TestDecodeNullTerminatedBody(t *testing.T) {
	wire := []byte("ERROR\nmessage:bad frame\n\noops\x00")
	d := NewDecoder()
	tr, n, ok, err := d.Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ok || n != len(wire) {
		t.Fatalf("ok=%v n=%d", ok, n)
	}
	cf := tr.(CompleteFrame)
	if string(cf.Frame.Body) != "oops" {
		t.Errorf("body = %q, want %q", cf.Frame.Body, "oops")
	}
}

// TestDecodeBadContentLength covers the malformed content-length error path.
func TestDecodeBadContentLength(t *testing.T) {
	wire := []byte("SEND\ndestination:/q/a\ncontent-length:notanumber\n\nx\x00")
	d := NewDecoder()
	_, _, _, err := d.Decode(wire)
	if err != errBadContentLength {
		t.Errorf("err = %v, want errBadContentLength", err)
	}
}

// TestEncodeTransactionalCommit covers scenario 6's wire order.
func TestEncodeTransactionalCommit(t *testing.T) {
	want := []string{
		"BEGIN\ntransaction:tx/0\n\n\x00",
		"SEND\ndestination:/q/a\ncontent-length:1\ntransaction:tx/0\n\nx\x00",
		"SEND\ndestination:/q/a\ncontent-length:1\ntransaction:tx/0\n\ny\x00",
		"COMMIT\ntransaction:tx/0\n\n\x00",
	}

	begin := BeginFrame("tx/0")

	send1 := SendFrame("/q/a", []byte("x"))
	send1.Headers.Append(HeaderTransaction, "tx/0")

	send2 := SendFrame("/q/a", []byte("y"))
	send2.Headers.Append(HeaderTransaction, "tx/0")

	commit := CommitFrame("tx/0")

	got := []string{
		string(Encode(CompleteFrame{Frame: begin})),
		string(Encode(CompleteFrame{Frame: send1})),
		string(Encode(CompleteFrame{Frame: send2})),
		string(Encode(CompleteFrame{Frame: commit})),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

// TestDecodeReceipt covers scenario 4's server reply.
func TestDecodeReceipt(t *testing.T) {
	wire := []byte("RECEIPT\nreceipt-id:message/0\n\n\x00")
	d := NewDecoder()
	tr, _, ok, err := d.Decode(wire)
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	cf := tr.(CompleteFrame)
	id, _ := cf.Frame.Headers.ReceiptId()
	if id != "message/0" {
		t.Errorf("receipt-id = %q, want message/0", id)
	}
}
