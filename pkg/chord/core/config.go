package core

import (
	"time"

	"github.com/oxring/chord/pkg/chord/definition"
	"github.com/oxring/chord/pkg/chord/types"
)

// Default tuning values, matching the Python original's module-level
// constants (DEFAULT_STABILIZE_INTERVAL, QUERY_TIMEOUT).
const (
	DefaultStabilizeInterval = 10 * time.Second
	DefaultQueryTimeout      = 10 * time.Second
	DefaultSuccListLen       = 4
)

// NodeConfiguration is the node construction parameters of spec §6,
// mirroring the teacher's BaseConfiguration/DefaultConfiguration
// shape: every field defaulted but overridable.
type NodeConfiguration struct {
	// Addr is this node's own network address; its id is derived by
	// hashing it into Ring.
	Addr string

	// Ring fixes the id space width. Defaults to types.DefaultIDBits.
	Ring types.Ring

	// StabilizeInterval is how often, absent other activity, the node
	// runs stabilize (or retries join while unjoined).
	StabilizeInterval time.Duration

	// QueryTimeout is how long an in-flight query may run before the
	// engine treats it as failed and delivers nil to its continuation.
	QueryTimeout time.Duration

	// SuccListLen is the successor-list breadth (SUCC_LIST_LEN).
	SuccListLen int

	// Logger receives anomaly/debug output. Defaults to a
	// definition.DefaultLogger tagged with Addr.
	Logger types.Logger

	// Clock is the injected time source. Defaults to types.SystemClock.
	Clock types.Clock

	// Invoker spawns the node's background goroutines. Defaults to a
	// fresh DefaultInvoker.
	Invoker Invoker

	// SeedPred and SeedSuccList let a node be constructed already
	// joined, for tests or a solo-ring bootstrap (spec §6: "must have
	// len(succ_list) = SUCC_LIST_LEN and pred non-null, else reject").
	SeedPred     *types.Pointer
	SeedSuccList []types.Pointer
}

// DefaultConfiguration builds a NodeConfiguration for addr with every
// tunable at its default, mirroring mcast.DefaultConfiguration.
func DefaultConfiguration(addr string) *NodeConfiguration {
	return &NodeConfiguration{
		Addr:              addr,
		Ring:              types.NewRing(types.DefaultIDBits),
		StabilizeInterval: DefaultStabilizeInterval,
		QueryTimeout:      DefaultQueryTimeout,
		SuccListLen:       DefaultSuccListLen,
		Logger:            definition.NewDefaultLogger(addr),
		Clock:             types.SystemClock{},
		Invoker:           NewInvoker(),
	}
}
