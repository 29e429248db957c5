package post

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPostIsEmptyDraft(t *testing.T) {
	p := New()
	require.Equal(t, Draft, p.State())
	require.Equal(t, "", p.Content())
	require.Equal(t, "", p.Draft())

	var zero Post
	require.Equal(t, Draft, zero.State())
	require.Equal(t, "", zero.Content())
}

func TestSaladScenario(t *testing.T) {
	p := New()
	p.AddText("I ate a salad for lunch today")
	require.Equal(t, "", p.Content())

	p.RequestReview()
	require.Equal(t, "", p.Content())

	p.Approve()
	require.Equal(t, "I ate a salad for lunch today", p.Content())
}

func TestApproveWithoutReviewKeepsDraft(t *testing.T) {
	p := New()
	p.AddText("I ate a salad for lunch today")
	p.Approve()
	require.Equal(t, "", p.Content())
	require.Equal(t, Draft, p.State())

	p.RequestReview()
	p.Approve()
	require.Equal(t, Published, p.State())
	require.Equal(t, "I ate a salad for lunch today", p.Content())
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   State
		action Action
		want   State
	}{
		{Draft, ActionRequestReview, PendingReview},
		{Draft, ActionApprove, Draft},
		{PendingReview, ActionRequestReview, PendingReview},
		{PendingReview, ActionApprove, Published},
		{Published, ActionRequestReview, Published},
		{Published, ActionApprove, Published},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"/"+string(tc.action), func(t *testing.T) {
			p := Restore("x", tc.from)
			from, to := p.Apply(tc.action)
			require.Equal(t, tc.from, from)
			require.Equal(t, tc.want, to)
			require.Equal(t, tc.want, p.State())
		})
	}
}

func TestUnknownActionIsNoop(t *testing.T) {
	for _, s := range []State{Draft, PendingReview, Published} {
		require.Equal(t, s, s.Next(Action("reject")))
	}
}

func TestAppendAcrossLifecycle(t *testing.T) {
	p := New()
	parts := []string{"one ", "two ", "three ", "four"}
	ops := []func(){p.RequestReview, p.Approve, p.Approve, p.RequestReview}
	for i, s := range parts {
		p.AddText(s)
		ops[i]()
		require.Equal(t, strings.Join(parts[:i+1], ""), p.Draft())
	}
	require.Equal(t, Published, p.State())
	require.Equal(t, "one two three four", p.Content())
}

func TestVisibilityGating(t *testing.T) {
	for _, s := range []State{Draft, PendingReview} {
		require.Equal(t, "", Restore("hidden", s).Content())
	}
	require.Equal(t, "shown", Restore("shown", Published).Content())
}

func TestRepeatedTransitionsReachFixedPoint(t *testing.T) {
	p := New()
	p.RequestReview()
	for i := 0; i < 5; i++ {
		p.Approve()
		require.Equal(t, Published, p.State())
	}
	for i := 0; i < 5; i++ {
		p.RequestReview()
		require.Equal(t, Published, p.State())
	}

	d := New()
	for i := 0; i < 5; i++ {
		d.RequestReview()
		require.Equal(t, PendingReview, d.State())
	}
}

func TestRestoreInvalidStateFallsBackToDraft(t *testing.T) {
	p := Restore("secret", State(42))
	require.Equal(t, Draft, p.State())
	require.Equal(t, "", p.Content())
	require.Equal(t, "secret", p.Draft())
}

func TestStateNames(t *testing.T) {
	for _, s := range []State{Draft, PendingReview, Published} {
		got, ok := ParseState(s.String())
		require.True(t, ok)
		require.Equal(t, s, got)
	}
	_, ok := ParseState("archived")
	require.False(t, ok)
	require.Equal(t, "unknown", State(9).String())

	b, err := Published.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "published", string(b))

	var s State
	require.NoError(t, s.UnmarshalText([]byte(" Pending_Review ")))
	require.Equal(t, PendingReview, s)
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("APPROVE")
	require.True(t, ok)
	require.Equal(t, ActionApprove, a)
	_, ok = ParseAction("publish")
	require.False(t, ok)
}

func TestCopiedPostIsIndependent(t *testing.T) {
	p := New()
	p.AddText("a")
	q := *p
	q.AddText("b")
	q.RequestReview()

	require.Equal(t, "a", p.Draft())
	require.Equal(t, Draft, p.State())
	require.Equal(t, "ab", q.Draft())
	require.Equal(t, PendingReview, q.State())

	var zero Post
	cp := zero
	cp.AddText("c")
	require.Equal(t, "", zero.Draft())
	require.Equal(t, "c", cp.Draft())
}
