// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/genesis"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/logdb"
	"github.com/vechain/nftstake/lvldb"
)

const devAddressPrefix = "dev:"

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
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

func initLogger(ctx *cli.Context) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.Setup(os.Stderr, log.FromVerbosity(ctx.GlobalInt(verbosityFlag.Name)), ctx.GlobalBool(jsonLogsFlag.Name), useColor)
}

func loadGenesis(ctx *cli.Context) *genesis.Genesis {
	path := ctx.GlobalString(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet()
	}
	cfg, err := genesis.LoadConfig(path)
	if err != nil {
		fatal(err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	gene, err := genesis.New(name, cfg)
	if err != nil {
		fatal(fmt.Sprintf("genesis [%v]: %v", path, err))
	}
	return gene
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := ctx.GlobalString(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func openMainDB(ctx *cli.Context, instanceDir string) *lvldb.LevelDB {
	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              normalizeCacheSize(ctx.GlobalInt(cacheFlag.Name)),
		OpenFilesCacheCapacity: suggestFDCache(),
	})
	if err != nil {
		fatal(fmt.Sprintf("open main database [%v]: %v", dir, err))
	}
	return db
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Root().Warn("failed to get total mem", "err", err)
	} else {
		// at most a quarter of the physical memory
		limitMB := int(mem.Total / 1024 / 1024 / 4)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Root().Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		fatal("failed to get fd limit:", err)
	}
	if limit <= 1024 {
		log.Root().Warn("low fd limit, increase it if possible", "limit", limit)
	}
	return min(limit/2, 1024)
}

func openLogDB(instanceDir string) *logdb.LogDB {
	path := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(path)
	if err != nil {
		fatal(fmt.Sprintf("open log database [%v]: %v", path, err))
	}
	return db
}

// node is an opened ledger with its databases.
type node struct {
	gene        *genesis.Genesis
	instanceDir string
	mainDB      *lvldb.LevelDB
	logDB       *logdb.LogDB
	ledger      *chain.Ledger
}

func openNode(ctx *cli.Context) *node {
	initLogger(ctx)
	gene := loadGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)
	mainDB := openMainDB(ctx, instanceDir)
	logDB := openLogDB(instanceDir)

	l, err := chain.New(mainDB, logDB, gene)
	if err != nil {
		fatal(fmt.Sprintf("initialize ledger: %v", err))
	}
	return &node{gene, instanceDir, mainDB, logDB, l}
}

func (n *node) Close() {
	log.Root().Debug("closing log database...")
	n.logDB.Close()
	log.Root().Debug("closing main database...")
	n.mainDB.Close()
}

// parseAddress accepts a base58 address, or dev:<name> for a devnet address.
func parseAddress(s string) (ledger.Address, error) {
	if name, ok := strings.CutPrefix(s, devAddressPrefix); ok {
		return genesis.DevAddress(name), nil
	}
	return ledger.ParseAddress(s)
}

func mustAddress(ctx *cli.Context, flag cli.StringFlag) ledger.Address {
	s := ctx.String(flag.Name)
	if s == "" {
		fatal(fmt.Sprintf("missing -%s", flag.Name))
	}
	addr, err := parseAddress(s)
	if err != nil {
		fatal(fmt.Sprintf("-%s: %v", flag.Name, err))
	}
	return addr
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func startServer(addr string, handler http.Handler) (string, *http.Server, net.Listener) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen [%v]: %v", addr, err))
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return "http://" + listener.Addr().String() + "/", srv, listener
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		sig := <-exitSignalCh
		log.Root().Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.nftstake")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.nftstake")
		default:
			return filepath.Join(home, ".org.vechain.nftstake")
		}
	}
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
