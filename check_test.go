package stomp

import (
	"testing"

	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type LawSuite struct{}

var _ = Suite(&LawSuite{})

// TestSelectHeartbeat checks spec.md §8's heartbeat-selection law:
// select_heartbeat(mine, theirs) is 0 if either side declined, otherwise the
// larger of the two.
func (s *LawSuite) TestSelectHeartbeat(c *C) {
	cases := []struct {
		mine, theirs, want int
	}{
		{0, 0, 0},
		{0, 3000, 0},
		{2000, 0, 0},
		{5000, 3000, 5000},
		{2000, 1000, 2000},
		{1000, 2000, 2000},
	}
	for _, tc := range cases {
		got := selectHeartbeat(tc.mine, tc.theirs)
		c.Check(got, Equals, tc.want, Commentf("selectHeartbeat(%d, %d)", tc.mine, tc.theirs))
	}
}

// TestIDMonotonicity checks spec.md §8's ID-monotonicity law: successive
// allocations from one allocator have strictly increasing integer suffixes
// starting at 0.
func (s *LawSuite) TestIDMonotonicity(c *C) {
	a := newIDAllocator("stomp-rs/")
	for i := 0; i < 5; i++ {
		got := a.allocate()
		want := "stomp-rs/" + itoa(i)
		c.Check(got, Equals, want)
	}
}

func (s *LawSuite) TestIDAllocatorsAreIndependent(c *C) {
	subIDs := newSubscriptionIDAllocator()
	txIDs := newTransactionIDAllocator()
	receiptIDs := newReceiptIDAllocator()

	c.Check(subIDs.allocate(), Equals, "stomp-rs/0")
	c.Check(txIDs.allocate(), Equals, "tx/0")
	c.Check(receiptIDs.allocate(), Equals, "message/0")
	// Allocating from one does not perturb the others' next value.
	c.Check(subIDs.allocate(), Equals, "stomp-rs/1")
	c.Check(txIDs.allocate(), Equals, "tx/1")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
