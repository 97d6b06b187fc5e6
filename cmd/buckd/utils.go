// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	isatty "github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/buck-labs/buck-v1-sub000/eventdb"
	"github.com/buck-labs/buck-v1-sub000/genesis"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
)

func fatal(args ...interface{}) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := ctx.Uint64(verbosityFlag.Name)
	level := log.FromLegacyLevel(int(logLevel))

	verbosity := new(slog.LevelVar)
	verbosity.Set(level)

	output := io.Writer(os.Stdout)
	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(output, verbosity)
	} else {
		useColor := (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(output, verbosity, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return verbosity
}

func selectGenesis(ctx *cli.Context) *genesis.Document {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		cli.ShowAppHelp(ctx)
		fmt.Println("genesis file not specified")
		os.Exit(1)
	}
	doc, err := genesis.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load genesis file [%v]: %v", path, err))
	}
	return doc
}

func parseCoupon(ctx *cli.Context) *big.Int {
	value := ctx.String(couponFlag.Name)
	coupon, ok := math.ParseBig256(value)
	if !ok || coupon.Sign() < 0 {
		fatal(fmt.Sprintf("parse -%s: expected a non-negative integer, got %q", couponFlag.Name, value))
	}
	return coupon
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.bucklabs.buck")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.bucklabs.buck")
		} else {
			return filepath.Join(home, ".org.bucklabs.buck")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func makeInstanceDir(ctx *cli.Context, doc *genesis.Document) string {
	dataDir := makeDataDir(ctx)

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", doc.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func openMainDB(dataDir string) *lvldb.LevelDB {
	dir := filepath.Join(dataDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{})
	if err != nil {
		fatal(fmt.Sprintf("open main database [%v]: %v", dir, err))
	}
	return db
}

func openMemMainDB() *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open main database: %v", err))
	}
	return db
}

func openEventDB(dataDir string) *eventdb.EventDB {
	dir := filepath.Join(dataDir, "events.db")
	db, err := eventdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open event database [%v]: %v", dir, err))
	}
	return db
}

func openMemEventDB() *eventdb.EventDB {
	db, err := eventdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open event database: %v", err))
	}
	return db
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// checkClockOffset warns when the local clock drifts from NTP. Unit accrual
// is time weighted, so a skewed daemon clock shifts checkpoint boundaries for
// everyone it serves.
func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > 10*time.Second || resp.ClockOffset < -10*time.Second {
		log.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func printStartupMessage(doc *genesis.Document, instanceDir, apiURL string) {
	fmt.Printf(`Starting %v
    Genesis      [ %v %v ]
    Launch time  [ %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
`,
		clientName(),
		doc.ID(), doc.Name,
		time.Unix(int64(doc.LaunchTime), 0),
		instanceDir,
		apiURL)
}

func printSoloStartupMessage(doc *genesis.Document, instanceDir, apiURL string) {
	printStartupMessage(doc, instanceDir, apiURL)

	var accounts bytes.Buffer
	accounts.WriteString(`┌────────────────────────────────────────────┬────────────────────────────────┐
│                  Address                   │              Role              │`)
	for i, a := range genesis.DevAccounts() {
		role := "holder"
		if i == 0 {
			role = "admin, distributor, treasury"
		}
		accounts.WriteString(fmt.Sprintf(`
├────────────────────────────────────────────┼────────────────────────────────┤
│ %v │ %-30v │`, a, role))
	}
	accounts.WriteString(`
└────────────────────────────────────────────┴────────────────────────────────┘`)
	fmt.Println(accounts.String())
}

func printGenesisTemplate() error {
	data, err := yaml.Marshal(genesis.NewDevnet())
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
