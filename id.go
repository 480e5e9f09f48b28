package stomp

import (
	"strconv"
	"sync/atomic"
)

// idAllocator produces a strictly monotonic sequence of ids "<prefix><n>"
// starting at 0. The builders and BeginTransaction allocate from the
// caller's goroutine, so the counter is an atomic.Uint32 and concurrent
// allocations never hand out the same id.
type idAllocator struct {
	prefix string
	next   atomic.Uint32
}

func newIDAllocator(prefix string) *idAllocator {
	return &idAllocator{prefix: prefix}
}

// allocate returns the next id in the sequence and advances the counter.
func (a *idAllocator) allocate() string {
	n := a.next.Add(1) - 1
	return a.prefix + strconv.FormatUint(uint64(n), 10)
}

// Sequential id namespaces mandated by spec: subscription ids look like
// "stomp-rs/<n>", transaction ids "tx/<n>", receipt ids "message/<n>".
// Each Session owns one allocator per namespace so the three counters are
// independent of one another.
func newSubscriptionIDAllocator() *idAllocator { return newIDAllocator("stomp-rs/") }
func newTransactionIDAllocator() *idAllocator  { return newIDAllocator("tx/") }
func newReceiptIDAllocator() *idAllocator      { return newIDAllocator("message/") }
