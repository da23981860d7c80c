package test

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/oxring/chord/pkg/chord/core"
	"github.com/oxring/chord/pkg/chord/definition"
	"github.com/oxring/chord/pkg/chord/types"
)

// Cluster is a set of Nodes sharing one in-memory network, the Chord
// analogue of the teacher's UnityCluster: a fixed-size group of
// participants wired over an in-memory transport so tests can drive
// joins, failures and stabilize rounds deterministically instead of
// over real sockets.
type Cluster struct {
	T     *testing.T
	Net   *core.MemNetwork
	Nodes []*core.Node
	group sync.WaitGroup
}

// NewNode builds and starts a single node on net at addr, joining
// through known. known must be non-nil: the node is built without a
// seeded successor list, so Start fails without one (NewCluster seeds
// its solo first node itself).
func NewNode(t *testing.T, net *core.MemNetwork, addr string, known *types.Pointer) *core.Node {
	t.Helper()
	cfg := core.DefaultConfiguration(addr)
	cfg.Logger = definition.NewDefaultLogger(addr)
	cfg.Logger.ToggleDebug(false)
	cfg.StabilizeInterval = 10 * time.Millisecond
	cfg.QueryTimeout = 50 * time.Millisecond

	transport := core.NewMemTransport(net, types.NewPointer(cfg.Ring, addr))
	node, err := core.NewNode(cfg, transport)
	if err != nil {
		t.Fatalf("failed creating node %s. %v", addr, err)
	}
	if err := node.Start(known); err != nil {
		t.Fatalf("failed starting node %s. %v", addr, err)
	}
	return node
}

// NewCluster builds a ring of size nodes: the first is seeded as a
// solo ring, the rest join through it in order, one address per node
// ("node-0".."node-N").
func NewCluster(t *testing.T, size int, seed int64) *Cluster {
	t.Helper()
	net := core.NewMemNetwork(seed)
	c := &Cluster{T: t, Net: net}

	cfg0 := core.DefaultConfiguration("node-0")
	self0 := types.NewPointer(cfg0.Ring, "node-0")
	pred0 := self0
	cfg0.Logger = definition.NewDefaultLogger("node-0")
	cfg0.StabilizeInterval = 10 * time.Millisecond
	cfg0.QueryTimeout = 50 * time.Millisecond
	cfg0.SeedPred = &pred0
	cfg0.SeedSuccList = make([]types.Pointer, cfg0.SuccListLen)
	for i := range cfg0.SeedSuccList {
		cfg0.SeedSuccList[i] = self0
	}
	node0, err := core.NewNode(cfg0, core.NewMemTransport(net, self0))
	if err != nil {
		t.Fatalf("failed creating node-0. %v", err)
	}
	if err := node0.Start(nil); err != nil {
		t.Fatalf("failed starting node-0. %v", err)
	}
	c.Nodes = append(c.Nodes, node0)

	for i := 1; i < size; i++ {
		addr := fmt.Sprintf("node-%d", i)
		node := NewNode(t, net, addr, &self0)
		c.Nodes = append(c.Nodes, node)
	}
	return c
}

// Off stops every node in the cluster concurrently and waits for all
// of them to finish, mirroring UnityCluster.Off.
func (c *Cluster) Off() {
	for _, node := range c.Nodes {
		c.group.Add(1)
		go func(n *core.Node) {
			defer c.group.Done()
			n.Stop()
		}(node)
	}
	c.group.Wait()
}

// AllJoined reports whether every node in the cluster has Joined.
func (c *Cluster) AllJoined() bool {
	for _, node := range c.Nodes {
		if !node.Peek().Joined {
			return false
		}
	}
	return true
}

// AllInvariantsHold runs CheckInvariants across every node, failing t
// on the first violation found.
func (c *Cluster) AllInvariantsHold() {
	for _, node := range c.Nodes {
		if err := node.Peek().CheckInvariants(); err != nil {
			c.T.Errorf("%s: %v", node.Self().Addr, err)
		}
	}
}

func PrintStackTrace(t *testing.T) {
	buf := make([]byte, 1<<16)
	runtime.Stack(buf, true)
	t.Errorf("%s", buf)
}

func WaitThisOrTimeout(cb func(), duration time.Duration) bool {
	done := make(chan bool)
	go func() {
		cb()
		done <- true
	}()
	select {
	case <-done:
		return true
	case <-time.After(duration):
		return false
	}
}

// WaitUntil polls cond every 5ms until it returns true or timeout
// elapses, returning whether it converged in time.
func WaitUntil(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
