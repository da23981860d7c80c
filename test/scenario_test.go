package test

import (
	"testing"
	"time"

	"github.com/oxring/chord/pkg/chord/core"
	"github.com/oxring/chord/pkg/chord/types"
)

// Scenario: two nodes join through a solo seed node, and every node of
// the resulting three-node ring ends up joined with a predecessor and
// a non-empty successor list, with all invariants holding (a smaller
// form of spec §8 scenario 3).
func TestScenario_ThreeNodeInsertionConverges(t *testing.T) {
	cluster := NewCluster(t, 3, 10)
	defer cluster.Off()

	if !WaitUntil(cluster.AllJoined, 2*time.Second) {
		t.Fatal("cluster did not converge to all-joined")
	}
	if !WaitUntil(func() bool {
		for _, n := range cluster.Nodes {
			s := n.Peek()
			if s.Pred == nil || len(s.SuccList) == 0 {
				return false
			}
		}
		return true
	}, 2*time.Second) {
		t.Fatal("ring did not stabilize predecessors/successors")
	}

	cluster.AllInvariantsHold()
}

// Scenario: a node's immediate successor stops responding; stabilize
// must drop it and fail over to the next entry in the successor list,
// per spec §8 scenario 4.
func TestScenario_SuccessorFailureFailsOverToNextInList(t *testing.T) {
	cluster := NewCluster(t, 3, 11)
	defer cluster.Off()

	if !WaitUntil(cluster.AllJoined, 2*time.Second) {
		t.Fatal("cluster did not converge to all-joined")
	}

	victim := cluster.Nodes[1]
	cluster.Net.DropAll(victim.Self().Addr)
	victim.Stop()
	cluster.Nodes = append(cluster.Nodes[:1], cluster.Nodes[2:]...)

	if !WaitUntil(func() bool {
		for _, n := range cluster.Nodes {
			for _, s := range n.Peek().SuccList {
				if s.Equal(victim.Self()) {
					return false
				}
			}
		}
		return true
	}, 2*time.Second) {
		t.Fatal("surviving nodes never dropped the failed successor")
	}

	cluster.AllInvariantsHold()
}

// Scenario: a response that matches no in-flight query (the shape a
// late reply takes once its query has timed out) must be rejected as
// unexpected rather than matched against whatever query is running,
// and must leave the node's invariants intact (spec §8 scenario 6).
func TestScenario_SpuriousLateReplyIsIgnored(t *testing.T) {
	cluster := NewCluster(t, 1, 12)
	defer cluster.Off()
	node := cluster.Nodes[0]

	self := node.Self()
	ghost := core.NewMemTransport(cluster.Net, types.NewPointer(types.NewRing(types.DefaultIDBits), "ghost"))
	defer ghost.Close()

	// A pong from an address the node never queried should be logged
	// and dropped, not matched against any in-flight query.
	if err := ghost.Send(self, types.Message{Kind: types.KindPong}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if err := node.Peek().CheckInvariants(); err != nil {
		t.Fatalf("invariants broke on a spurious reply: %v", err)
	}
}
