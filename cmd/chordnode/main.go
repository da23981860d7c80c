package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oxring/chord/pkg/chord/core"
	"github.com/oxring/chord/pkg/chord/definition"
	"github.com/oxring/chord/pkg/chord/types"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("chordnode", "Run a single Chord ring participant.")

	addr = app.Flag("addr", "address this node listens and is addressed on").
		Required().String()
	join = app.Flag("join", "address of an existing ring member to join through; omit to bootstrap a solo ring").
		String()
	stabilizeInterval = app.Flag("stabilize-interval", "how often to run stabilize").
		Default(core.DefaultStabilizeInterval.String()).Duration()
	queryTimeout = app.Flag("query-timeout", "how long an in-flight query may run before it's treated as failed").
		Default(core.DefaultQueryTimeout.String()).Duration()
	succListLen = app.Flag("succ-list-len", "successor list breadth").
		Default(fmt.Sprintf("%d", core.DefaultSuccListLen)).Int()
	logBackend = app.Flag("log-backend", "logging backend: stdlib, logrus or prometheus").
		Default("stdlib").Enum("stdlib", "logrus", "prometheus")
	debug = app.Flag("debug", "enable debug-level logging").Bool()
)

func buildLogger(backend, nodeAddr string) types.Logger {
	switch backend {
	case "logrus":
		return definition.NewLogrusLogger(nodeAddr)
	case "prometheus":
		return definition.NewPrometheusLogger()
	default:
		return definition.NewDefaultLogger(nodeAddr)
	}
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := buildLogger(*logBackend, *addr)
	logger.ToggleDebug(*debug)

	cfg := core.DefaultConfiguration(*addr)
	cfg.Logger = logger
	cfg.StabilizeInterval = *stabilizeInterval
	cfg.QueryTimeout = *queryTimeout
	cfg.SuccListLen = *succListLen

	self := types.NewPointer(cfg.Ring, *addr)
	transport, err := core.NewReltTransport(self, logger, cfg.Invoker)
	if err != nil {
		logger.Fatalf("building transport: %v", err)
	}

	var known *types.Pointer
	if *join != "" {
		p := types.NewPointer(cfg.Ring, *join)
		known = &p
	} else {
		succs := make([]types.Pointer, cfg.SuccListLen)
		for i := range succs {
			succs[i] = self
		}
		cfg.SeedPred = &self
		cfg.SeedSuccList = succs
	}

	node, err := core.NewNode(cfg, transport)
	if err != nil {
		logger.Fatalf("configuring node: %v", err)
	}

	if err := node.Start(known); err != nil {
		logger.Fatalf("starting node: %v", err)
	}
	logger.Infof("node %s up, id=%d", node.Self().Addr, node.Self().ID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("shutting down")
	node.Stop()
	time.Sleep(50 * time.Millisecond)
}
