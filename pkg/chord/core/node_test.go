package core

import (
	"testing"
	"time"

	"github.com/oxring/chord/pkg/chord/definition"
	"github.com/oxring/chord/pkg/chord/types"
	"github.com/stretchr/testify/require"
)

func quietConfig(addr string) *NodeConfiguration {
	cfg := DefaultConfiguration(addr)
	cfg.Logger = definition.NewDefaultLogger(addr)
	cfg.StabilizeInterval = 10 * time.Millisecond
	cfg.QueryTimeout = 50 * time.Millisecond
	return cfg
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestNode_SoloRingStaysStableAcrossStabilize(t *testing.T) {
	net := NewMemNetwork(1)
	cfg := quietConfig("solo")
	self := types.NewPointer(cfg.Ring, "solo")
	pred := self
	cfg.SeedPred = &pred
	cfg.SeedSuccList = []types.Pointer{self, self, self, self}

	transport := NewMemTransport(net, self)
	node, err := NewNode(cfg, transport)
	require.NoError(t, err)
	require.NoError(t, node.Start(nil))
	t.Cleanup(node.Stop)

	time.Sleep(60 * time.Millisecond)
	state := node.Peek()
	require.NoError(t, state.CheckInvariants())
	require.True(t, state.Pred.Equal(self))
}

func TestNode_TwoNodeJoinConverges(t *testing.T) {
	net := NewMemNetwork(2)
	cfgA := quietConfig("a")
	selfA := types.NewPointer(cfgA.Ring, "a")
	cfgA.SeedPred = &selfA
	cfgA.SeedSuccList = []types.Pointer{selfA, selfA, selfA, selfA}
	nodeA, err := NewNode(cfgA, NewMemTransport(net, selfA))
	require.NoError(t, err)
	require.NoError(t, nodeA.Start(nil))
	t.Cleanup(nodeA.Stop)

	cfgB := quietConfig("b")
	nodeB, err := NewNode(cfgB, NewMemTransport(net, types.NewPointer(cfgB.Ring, "b")))
	require.NoError(t, err)
	require.NoError(t, nodeB.Start(&selfA))
	t.Cleanup(nodeB.Stop)

	waitFor(t, time.Second, func() bool {
		return nodeB.Peek().Joined
	})
	waitFor(t, time.Second, func() bool {
		s := nodeA.Peek()
		return s.Pred != nil && s.Pred.Addr == "b"
	})

	require.NoError(t, nodeA.Peek().CheckInvariants())
	require.NoError(t, nodeB.Peek().CheckInvariants())
}

// TestNode_QueryTimeoutIsDrivenByFakeClock exercises timeoutHandler
// directly, with a FakeClock standing in for wall-clock time: the
// query must not be treated as timed out before QueryTimeout has
// elapsed, and must be as soon as it has, with no reliance on real
// sleeps.
func TestNode_QueryTimeoutIsDrivenByFakeClock(t *testing.T) {
	net := NewMemNetwork(5)
	cfg := quietConfig("a")
	clock := types.NewFakeClock(time.Unix(0, 0))
	cfg.Clock = clock
	cfg.SuccListLen = 1
	self := types.NewPointer(cfg.Ring, "a")
	pred := self
	cfg.SeedPred = &pred
	cfg.SeedSuccList = []types.Pointer{self}

	deadEnd := types.NewPointer(cfg.Ring, "dead-end")
	node, err := NewNode(cfg, NewMemTransport(net, self))
	require.NoError(t, err)

	sends, err := node.startQuery(StabilizeQuery(deadEnd))
	require.NoError(t, err)
	require.Len(t, sends, 1)

	sends, err = node.timeoutHandler()
	require.NoError(t, err)
	require.Nil(t, sends)
	require.NotNil(t, node.Peek().Query)

	clock.Advance(cfg.QueryTimeout + time.Millisecond)
	_, err = node.timeoutHandler()
	require.NoError(t, err)
	require.Nil(t, node.Peek().Query)
}

func TestNode_SoloNodeAdoptsNotifierAsPredecessor(t *testing.T) {
	net := NewMemNetwork(4)
	cfg := quietConfig("a")
	self := types.NewPointer(cfg.Ring, "a")
	pred := self
	cfg.SeedPred = &pred
	cfg.SeedSuccList = []types.Pointer{self, self, self, self}
	node, err := NewNode(cfg, NewMemTransport(net, self))
	require.NoError(t, err)
	require.NoError(t, node.Start(nil))
	t.Cleanup(node.Stop)

	notifierCfg := quietConfig("notifier")
	notifier := types.NewPointer(notifierCfg.Ring, "notifier")
	notifierTransport := NewMemTransport(net, notifier)
	require.NoError(t, notifierTransport.Send(self, types.Message{Kind: types.KindNotify}))

	waitFor(t, time.Second, func() bool {
		s := node.Peek()
		return s.Pred != nil && s.Pred.Addr == "notifier"
	})
}
