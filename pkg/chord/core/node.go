package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oxring/chord/pkg/chord/definition"
	"github.com/oxring/chord/pkg/chord/types"
)

// pollInterval bounds how long a single Transport.Recv call blocks
// before the main loop re-checks the timeout handler, the node's
// analogue of the Python original's short non-blocking io.recv()
// poll window.
const pollInterval = 200 * time.Millisecond

// Node is a long-lived ring participant: a single mutable State record
// driven to completion one event (a received message or a timer tick)
// at a time by its own goroutine, per spec §2/§5. mainLoop is the only
// mutator of State; it holds a small mutex around each handler so that
// Peek, which external callers (tests, a status endpoint) may call
// concurrently with the running loop, never sees a half-updated State.
type Node struct {
	cfg       *NodeConfiguration
	transport types.Transport

	mu    sync.Mutex
	state types.State

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	loggedEmptySuccList bool

	// queryTrace correlates a startQuery/endQuery pair in the logs: one
	// RPC followed across its retries/timeouts, the way the Python
	// original's log lines embed repr(query).
	queryTrace string
}

// NewNode validates cfg and transport and constructs a Node. A seeded
// pred without a full-length succ_list (or vice versa) is a fatal
// configuration error, per spec §6/§7.
func NewNode(cfg *NodeConfiguration, transport types.Transport) (*Node, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: empty address", types.ErrBadConfiguration)
	}
	if cfg.SuccListLen <= 0 {
		cfg.SuccListLen = DefaultSuccListLen
	}
	if cfg.StabilizeInterval <= 0 {
		cfg.StabilizeInterval = DefaultStabilizeInterval
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.Ring.Bits == 0 {
		cfg.Ring = types.NewRing(types.DefaultIDBits)
	}
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Invoker == nil {
		cfg.Invoker = NewInvoker()
	}
	if cfg.Logger == nil {
		cfg.Logger = definition.NewDefaultLogger(cfg.Addr)
	}

	hasPred := cfg.SeedPred != nil
	hasSuccs := cfg.SeedSuccList != nil
	if hasPred && !hasSuccs {
		return nil, fmt.Errorf("%w: provided pred but not succ_list", types.ErrBadConfiguration)
	}
	if hasSuccs && !hasPred {
		return nil, fmt.Errorf("%w: provided succ_list but not pred", types.ErrBadConfiguration)
	}
	if hasSuccs && len(cfg.SeedSuccList) != cfg.SuccListLen {
		return nil, fmt.Errorf("%w: succ_list isn't the right length", types.ErrBadConfiguration)
	}

	ptr := types.NewPointer(cfg.Ring, cfg.Addr)
	state := types.State{
		Ptr:         ptr,
		SuccListLen: cfg.SuccListLen,
		Joined:      false,
	}
	if hasSuccs {
		state.Joined = true
		state.SuccList = append([]types.Pointer(nil), cfg.SeedSuccList...)
		pred := *cfg.SeedPred
		state.Pred = &pred
	}

	return &Node{
		cfg:       cfg,
		transport: transport,
		state:     state,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Self returns this node's own Pointer.
func (n *Node) Self() types.Pointer { return n.state.Ptr }

// Peek returns a snapshot of the node's current State, for tests and
// observability. It takes the same mutex mainLoop briefly holds around
// each handler, so callers always see a consistent State, never one
// half-updated by a handler in progress.
func (n *Node) Peek() types.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Start begins the node: it brings up the transport, runs the
// start-handler (join bootstrap, or adopt a pre-seeded ring), and
// launches the main loop in the background. known must be non-nil
// unless the node was constructed with a pre-populated successor list
// (spec §6).
func (n *Node) Start(known *types.Pointer) error {
	if err := n.transport.Start(); err != nil {
		return fmt.Errorf("chord: starting transport: %w", err)
	}

	sends, err := n.startHandler(known)
	if err != nil {
		return err
	}
	n.sendAll(sends)

	n.cfg.Invoker.Spawn(n.mainLoop)
	return nil
}

// Stop halts the main loop and closes the transport. It blocks until
// the loop has actually exited.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		close(n.stopCh)
	})
	<-n.doneCh
	_ = n.transport.Close()
}

func (n *Node) sendAll(sends []types.Send) {
	for _, s := range sends {
		if err := n.transport.Send(s.Dst, s.Msg); err != nil {
			n.cfg.Logger.Errorf("send to %s failed: %v", s.Dst.Addr, err)
		}
	}
}

// mainLoop interleaves timeout checks with transport receives, per
// spec §4.4/§5: exactly one event is processed to completion before
// the next, and stabilize/query-timeout checks run every iteration so
// QUERY_TIMEOUT is honored within one poll window.
func (n *Node) mainLoop() {
	defer close(n.doneCh)
	defer n.cfg.Logger.Infof("shutdown process %s", n.state.Ptr.Addr)

	for {
		select {
		case <-n.stopCh:
			return
		default:
		}

		n.runTimeout()

		src, msg, ok := n.transport.Recv(pollInterval)
		if !ok {
			continue
		}
		n.runRecv(src, msg)
	}
}

func (n *Node) runTimeout() {
	n.mu.Lock()
	defer n.mu.Unlock()
	sends, err := n.timeoutHandler()
	if err != nil {
		n.cfg.Logger.Fatalf("timeout handler: %v", err)
		return
	}
	n.sendAll(sends)
}

func (n *Node) runRecv(src types.Pointer, msg types.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sends, err := n.recvHandler(src, msg)
	if err != nil {
		n.cfg.Logger.Warnf("%v", err)
		return
	}
	n.sendAll(sends)
}

// startHandler implements spec §4.4's start_handler.
func (n *Node) startHandler(known *types.Pointer) ([]types.Send, error) {
	now := n.cfg.Clock.Now()
	if len(n.state.SuccList) == 0 {
		if known == nil {
			return nil, fmt.Errorf("%w: can't join without a known node", types.ErrBadConfiguration)
		}
		n.state.Known = known
		n.state.LastStabilize = now.Add(-n.cfg.StabilizeInterval)
		return n.startQuery(JoinQuery(*known, n.state.Ptr.ID))
	}
	n.state.LastStabilize = now
	return nil, nil
}

// recvHandler implements spec §4.4's recv_handler dispatch table.
func (n *Node) recvHandler(src types.Pointer, msg types.Message) ([]types.Send, error) {
	switch msg.Kind {
	case types.KindGetBestPredecessor:
		req := msg.Data.(types.GetBestPredecessorRequest)
		pred := BestPredecessor(n.state, req.ID)
		return []types.Send{{Dst: src, Msg: types.Message{
			Kind: types.KindGotBestPredecessor,
			Data: types.GetBestPredecessorResponse{Pred: pred},
		}}}, nil

	case types.KindGetSuccList:
		return []types.Send{{Dst: src, Msg: types.Message{
			Kind: types.KindGotSuccList,
			Data: types.GetSuccListResponse{Succs: n.state.SuccList},
		}}}, nil

	case types.KindGetPredAndSuccs:
		return []types.Send{{Dst: src, Msg: types.Message{
			Kind: types.KindGotPredAndSuccs,
			Data: types.GetPredAndSuccsResponse{Pred: n.state.Pred, Succs: n.state.SuccList},
		}}}, nil

	case types.KindNotify:
		srcCopy := src
		n.state.RectifyWith = &srcCopy
		if n.state.Query == nil {
			return n.tryRectify()
		}
		return nil, nil

	case types.KindPing:
		return []types.Send{{Dst: src, Msg: types.Message{Kind: types.KindPong}}}, nil

	default:
		if n.state.Query != nil && msg.Kind == n.state.Query.ResKind && src.ID == n.state.Query.Dst.ID {
			return n.endQuery(&msg)
		}
		// Typically a late response after a timeout; recoverable per
		// spec §7, downgraded from an error to a warning by the caller.
		return nil, fmt.Errorf("%w: %s from %s", types.ErrUnexpectedMessage, msg.Kind, src.Addr)
	}
}

// timeoutHandler implements spec §4.4's timeout_handler. The
// query-timeout check runs every call so a timeout is honored within
// one poll window, per spec §5; the stabilize start (or join retry,
// while unjoined) is additionally gated on StabilizeInterval, per
// spec §6's documented tunable and the Python original's equivalent
// main_loop gate.
func (n *Node) timeoutHandler() ([]types.Send, error) {
	if n.state.Query == nil {
		if n.state.Joined {
			if len(n.state.SuccList) == 0 {
				// Open Question (a): halt stabilize progress. No handler
				// refills an empty succ_list (a notify only updates
				// pred), so stabilize stays halted from here on.
				if !n.loggedEmptySuccList {
					n.cfg.Logger.Warnf("succ_list empty, halting stabilize until external intervention")
					n.loggedEmptySuccList = true
				}
				return nil, nil
			}
			n.loggedEmptySuccList = false
		}
		if n.cfg.Clock.Now().Sub(n.state.LastStabilize) < n.cfg.StabilizeInterval {
			return nil, nil
		}
		n.state.LastStabilize = n.cfg.Clock.Now()
		if n.state.Joined {
			return n.startQuery(StabilizeQuery(n.state.SuccList[0]))
		}
		return n.startQuery(JoinQuery(*n.state.Known, n.state.Ptr.ID))
	}
	if n.cfg.Clock.Now().Sub(*n.state.QuerySent) > n.cfg.QueryTimeout {
		return n.endQuery(nil)
	}
	return nil, nil
}

// startQuery implements spec §4.2's start_query. Starting a query
// while one is already in flight is a programmer error (I2) and is
// fatal, not recoverable; matching the Python original's
// InterruptedQuery, it panics rather than returning an error.
func (n *Node) startQuery(q types.Query) ([]types.Send, error) {
	if n.state.Query != nil {
		panic(types.InterruptedQuery{Query: n.state.Query})
	}
	now := n.cfg.Clock.Now()
	n.state.Query = &q
	n.state.QuerySent = &now
	n.queryTrace = uuid.New().String()
	n.cfg.Logger.Debugf("query %s: %s -> %s started", n.queryTrace, q.Msg.Kind, q.Dst.Addr)
	return []types.Send{{Dst: q.Dst, Msg: q.Msg}}, nil
}

// endQuery implements spec §4.2's end_query.
func (n *Node) endQuery(msg *types.Message) ([]types.Send, error) {
	q := n.state.Query
	n.state.Query = nil
	n.state.QuerySent = nil
	trace := n.queryTrace
	if msg == nil {
		n.cfg.Logger.Debugf("query %s: timed out waiting on %s", trace, q.Dst.Addr)
	} else {
		n.cfg.Logger.Debugf("query %s: got %s from %s", trace, msg.Kind, q.Dst.Addr)
	}

	action, newState := q.Cb(n.state, msg)
	n.state = newState

	switch a := action.(type) {
	case types.NoneAction:
		if n.state.Joined {
			return n.tryRectify()
		}
		return nil, nil

	case types.QueryAction:
		return n.startQuery(a.Query)

	case types.SendsAction:
		sends := a.Sends
		if n.state.Joined {
			rectifySends, err := n.tryRectify()
			if err != nil {
				return nil, err
			}
			sends = append(append([]types.Send(nil), sends...), rectifySends...)
		}
		return sends, nil

	default:
		panic(types.BadQueryCallbackResult{Result: action})
	}
}

// tryRectify implements spec §4.3's rectify-on-notify procedure.
func (n *Node) tryRectify() ([]types.Send, error) {
	if n.state.RectifyWith == nil {
		return nil, nil
	}
	if n.state.Query != nil {
		panic(types.InterruptedQuery{Query: n.state.Query})
	}
	if n.state.Pred == nil {
		n.state.Pred = n.state.RectifyWith
		n.state.RectifyWith = nil
		return nil, nil
	}
	notifier := *n.state.RectifyWith
	pred := *n.state.Pred
	n.state.RectifyWith = nil
	return n.startQuery(RectifyQuery(pred, notifier))
}
