// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/buck-labs/buck-v1-sub000/api"
	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/cmd/buckd/httpserver"
	"github.com/buck-labs/buck-v1-sub000/cmd/buckd/scheduler"
	"github.com/buck-labs/buck-v1-sub000/eventdb"
	"github.com/buck-labs/buck-v1-sub000/genesis"
	"github.com/buck-labs/buck-v1-sub000/health"
	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/metrics"
	"github.com/buck-labs/buck-v1-sub000/node"
	"github.com/buck-labs/buck-v1-sub000/policy"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/state"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func clientName() string {
	return fmt.Sprintf("Buck/%s/%s/%s", fullVersion(), runtime.GOOS, runtime.Version())
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Buck",
		Usage:     "Node of the Buck rewards network",
		Copyright: "2026 BuckLabs",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			skipEventsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			distributeIntervalFlag,
			couponFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "Buck node for test & dev, boots from the built-in devnet genesis",
				Flags: []cli.Flag{
					dataDirFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiEventsLimitFlag,
					enableAPILogsFlag,
					verbosityFlag,
					jsonLogsFlag,
					pprofFlag,
					skipEventsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
					distributeIntervalFlag,
					couponFlag,
					persistFlag,
				},
				Action: soloAction,
			},
			{
				Name:   "genesis",
				Usage:  "print the devnet genesis document as a template",
				Action: genesisAction,
			},
			{
				Name:  "verify",
				Usage: "check state conservation invariants account by account",
				Flags: []cli.Flag{
					genesisFlag,
					dataDirFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: verifyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { log.Info("exited") }()

	logLevel := initLogger(ctx)
	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(instanceDir)
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	var events *eventdb.EventDB
	if !ctx.Bool(skipEventsFlag.Name) {
		events = openEventDB(instanceDir)
		defer func() { log.Info("closing event database..."); events.Close() }()
	}

	nd := initNode(gene, mainDB, events)
	return runNode(ctx, exitSignal, nd, gene, instanceDir, logLevel, false)
}

func soloAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { log.Info("exited") }()

	logLevel := initLogger(ctx)
	gene := genesis.NewDevnet()

	var mainDB *lvldb.LevelDB
	var events *eventdb.EventDB
	var instanceDir string

	if ctx.Bool(persistFlag.Name) {
		instanceDir = makeInstanceDir(ctx, gene)
		mainDB = openMainDB(instanceDir)
		if !ctx.Bool(skipEventsFlag.Name) {
			events = openEventDB(instanceDir)
		}
	} else {
		instanceDir = "Memory"
		mainDB = openMemMainDB()
		if !ctx.Bool(skipEventsFlag.Name) {
			events = openMemEventDB()
		}
	}
	defer func() { log.Info("closing main database..."); mainDB.Close() }()
	if events != nil {
		defer func() { log.Info("closing event database..."); events.Close() }()
	}

	nd := initNode(gene, mainDB, events)
	return runNode(ctx, exitSignal, nd, gene, instanceDir, logLevel, true)
}

func genesisAction(_ *cli.Context) error {
	return printGenesisTemplate()
}

// initNode builds the component stack over the store and applies the genesis
// document on first boot.
func initNode(doc *genesis.Document, db *lvldb.LevelDB, events *eventdb.EventDB) *node.Node {
	st := state.New(db)
	pol := policy.New(buck.PolicyAddress, st)
	led := ledger.New(buck.LedgerAddress, st)
	eng, err := rewards.New(buck.RewardsAddress, st, led, led, pol)
	if err != nil {
		fatal("initialize rewards engine:", err)
	}
	led.SetHooks(eng)

	applied, err := doc.Apply(st, eng, led, pol)
	if err != nil {
		fatal("apply genesis document:", err)
	}
	if applied {
		stage, err := st.Stage()
		if err != nil {
			fatal("stage genesis writes:", err)
		}
		if err := stage.Commit(); err != nil {
			fatal("commit genesis writes:", err)
		}
		log.Info("genesis document applied", "id", doc.ID(), "name", doc.Name)
	}

	return node.New(st, eng, led, pol, node.Options{Events: events})
}

// runNode starts the servers and the distribution scheduler, then blocks
// until the exit signal.
func runNode(
	ctx *cli.Context,
	exitSignal context.Context,
	nd *node.Node,
	gene *genesis.Document,
	instanceDir string,
	logLevel *slog.LevelVar,
	soloMode bool,
) error {
	hlth := health.New(nd)
	hlth.BootstrapStatus(true)

	apiLogs := atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	apiHandler, apiCloser := api.New(nd, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		SkipEvents:      ctx.Bool(skipEventsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EventsLimit:     ctx.Uint64(apiEventsLimitFlag.Name),
		EnableDevLedger: soloMode,
		APILogs:         &apiLogs,
	})
	defer apiCloser()

	timeout := time.Duration(ctx.Uint64(apiTimeoutFlag.Name)) * time.Millisecond
	apiURL, srvCloser, err := httpserver.StartAPIServer(ctx.String(apiAddrFlag.Name), apiHandler, timeout)
	if err != nil {
		return errors.Wrap(err, "unable to start API server")
	}
	defer func() { log.Info("stopping API server..."); srvCloser() }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return errors.Wrap(err, "unable to start metrics server")
		}
		log.Info("metrics server started", "url", url)
		defer func() { log.Info("stopping metrics server..."); closeFunc() }()
	}

	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, &apiLogs, hlth)
		if err != nil {
			return errors.Wrap(err, "unable to start admin server")
		}
		log.Info("admin server started", "url", url)
		defer func() { log.Info("stopping admin server..."); closeFunc() }()
	}

	if interval := ctx.Uint64(distributeIntervalFlag.Name); interval > 0 {
		cfg, err := nd.Config()
		if err != nil {
			return errors.Wrap(err, "read engine config")
		}
		distributor := cfg.Distributor
		if distributor.IsZero() {
			distributor = cfg.Admin
		}
		sched, err := scheduler.New(scheduler.Options{
			Node:        nd,
			Distributor: distributor,
			Coupon:      scheduler.FixedCoupon(parseCoupon(ctx)),
			Interval:    time.Duration(interval) * time.Second,
		})
		if err != nil {
			return errors.Wrap(err, "create scheduler")
		}
		sched.Start(exitSignal)
		defer func() { log.Info("stopping scheduler..."); sched.Wait() }()
	}

	if soloMode {
		printSoloStartupMessage(gene, instanceDir, apiURL)
	} else {
		printStartupMessage(gene, instanceDir, apiURL)
	}

	houseKeeping(exitSignal)
	return nil
}

// houseKeeping blocks until exit, checking the clock against NTP on the way.
func houseKeeping(exitSignal context.Context) {
	log.Debug("enter house keeping")
	defer log.Debug("leave house keeping")

	checkClockOffset()

	clockSyncTicker := time.NewTicker(10 * time.Minute)
	defer clockSyncTicker.Stop()

	for {
		select {
		case <-exitSignal.Done():
			return
		case <-clockSyncTicker.C:
			checkClockOffset()
		}
	}
}
