package core

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oxring/chord/pkg/chord/types"
)

type memEnvelope struct {
	src types.Pointer
	msg types.Message
}

// MemNetwork is a process-wide registry of address -> inbox used by
// MemTransport, the way the teacher fakes its hard-to-drive
// collaborator in test.TestInvoker/CreateCluster rather than spinning
// up real sockets for deterministic tests. A single MemNetwork backs
// every MemTransport in one scenario.
type MemNetwork struct {
	mu     sync.Mutex
	inbox  map[string]chan memEnvelope
	lossPc map[string]float64
	rnd    *rand.Rand
}

// NewMemNetwork builds an empty in-memory network. seed fixes the
// packet-loss RNG so scenario tests are reproducible.
func NewMemNetwork(seed int64) *MemNetwork {
	return &MemNetwork{
		inbox:  make(map[string]chan memEnvelope),
		lossPc: make(map[string]float64),
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

func (n *MemNetwork) register(addr string) chan memEnvelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch, ok := n.inbox[addr]
	if !ok {
		ch = make(chan memEnvelope, 256)
		n.inbox[addr] = ch
	}
	return ch
}

func (n *MemNetwork) unregister(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.inbox, addr)
}

// DropAll makes every packet destined to addr disappear, modeling the
// "transport drops all packets" failure in spec §8 scenario 4.
func (n *MemNetwork) DropAll(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lossPc[addr] = 1.0
}

// SetLoss sets a fractional (0..1) chance that a packet to addr is
// silently dropped.
func (n *MemNetwork) SetLoss(addr string, pc float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lossPc[addr] = pc
}

func (n *MemNetwork) deliver(dst string, env memEnvelope) error {
	n.mu.Lock()
	pc := n.lossPc[dst]
	ch, ok := n.inbox[dst]
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("mem transport: no such address %s", dst)
	}
	if pc > 0 && n.rnd.Float64() < pc {
		return nil
	}
	select {
	case ch <- env:
		return nil
	default:
		return fmt.Errorf("mem transport: inbox full for %s", dst)
	}
}

// MemTransport is an in-memory types.Transport backed by a shared
// MemNetwork, used by the deterministic scenario tests in package test
// and fuzzy.
type MemTransport struct {
	self types.Pointer
	net  *MemNetwork
	ch   chan memEnvelope
}

// NewMemTransport registers self on net and returns a Transport for it.
func NewMemTransport(net *MemNetwork, self types.Pointer) *MemTransport {
	return &MemTransport{self: self, net: net, ch: net.register(self.Addr)}
}

func (t *MemTransport) Start() error { return nil }

func (t *MemTransport) Send(dst types.Pointer, msg types.Message) error {
	return t.net.deliver(dst.Addr, memEnvelope{src: t.self, msg: msg})
}

func (t *MemTransport) Recv(timeout time.Duration) (types.Pointer, types.Message, bool) {
	select {
	case env := <-t.ch:
		return env.src, env.msg, true
	case <-time.After(timeout):
		return types.Pointer{}, types.Message{}, false
	}
}

func (t *MemTransport) Close() error {
	t.net.unregister(t.self.Addr)
	return nil
}
