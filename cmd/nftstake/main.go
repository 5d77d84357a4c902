// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/nftstake/api"
	"github.com/vechain/nftstake/builtin/staker/instruction"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/genesis"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/logdb"
	"github.com/vechain/nftstake/metrics"
	"github.com/vechain/nftstake/xenv"
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

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "nftstake",
		Usage:     "solo ledger running the NFT staking program",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			cacheFlag,
			verbosityFlag,
			jsonLogsFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "serve",
				Usage:  "serve the REST API over the ledger",
				Action: serveAction,
				Flags: []cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					apiEventsLimitFlag,
					enableAPILogsFlag,
					apiSlowQueriesThresholdFlag,
					apiLog5xxErrorsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
			},
			{
				Name:  "invoke",
				Usage: "run one staking instruction against the ledger",
				Subcommands: []cli.Command{
					{
						Name:   "init",
						Usage:  "initialize a platform registry and seed its reward pool",
						Action: initAction,
						Flags:  []cli.Flag{registryFlag, ownerFlag, sourceFlag, poolFlag, amountFlag, keyFlag},
					},
					{
						Name:   "stake",
						Usage:  "stake an asset",
						Action: stakeAction,
						Flags:  []cli.Flag{registryFlag, userFlag, assetFlag, custodyFlag, keyFlag},
					},
					{
						Name:   "unstake",
						Usage:  "unstake an asset, paying the accrued reward",
						Action: unstakeAction,
						Flags:  []cli.Flag{registryFlag, poolFlag, userFlag, assetFlag, custodyFlag, rewardsFlag, keyFlag},
					},
					{
						Name:   "harvest",
						Usage:  "pay the accrued reward of a position",
						Action: harvestAction,
						Flags:  []cli.Flag{registryFlag, poolFlag, userFlag, assetFlag, rewardsFlag, keyFlag},
					},
				},
			},
			{
				Name:   "advance",
				Usage:  "move the ledger clock forward",
				Action: advanceAction,
				Flags:  []cli.Flag{secondsFlag},
			},
			{
				Name:  "show",
				Usage: "print ledger records",
				Subcommands: []cli.Command{
					{
						Name:   "platform",
						Usage:  "print a platform registry and its escrow",
						Action: showPlatformAction,
						Flags:  []cli.Flag{registryFlag},
					},
					{
						Name:   "position",
						Usage:  "print a user position",
						Action: showPositionAction,
						Flags:  []cli.Flag{userFlag, assetFlag},
					},
					{
						Name:   "account",
						Usage:  "print a ledger account",
						Action: showAccountAction,
						Flags:  []cli.Flag{addressFlag},
					},
					{
						Name:   "token",
						Usage:  "print a token account",
						Action: showTokenAction,
						Flags:  []cli.Flag{addressFlag},
					},
					{
						Name:   "events",
						Usage:  "print staking events",
						Action: showEventsAction,
						Flags:  []cli.Flag{userFlag, assetFlag},
					},
					{
						Name:   "dev",
						Usage:  "print the devnet accounts",
						Action: showDevAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()

	metricsEnabled := ctx.Bool(enableMetricsFlag.Name)
	if metricsEnabled {
		metrics.InitializePrometheusMetrics()
	}

	n := openNode(ctx)
	defer func() { log.Root().Info("exited") }()
	defer n.Close()

	var enableReqLogger atomic.Bool
	enableReqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler, closeSubscriptions := api.New(n.ledger, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		EnableMetrics:        metricsEnabled,
		EnableReqLogger:      &enableReqLogger,
		SlowQueriesThreshold: ctx.Duration(apiSlowQueriesThresholdFlag.Name),
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
	})

	apiURL, apiSrv, apiListener := startServer(ctx.String(apiAddrFlag.Name), handler)
	servers := []*http.Server{apiSrv}

	log.Root().Info("ledger ready",
		"network", n.gene.Name(),
		"genesis", n.gene.ID().String(),
		"instance", n.instanceDir,
		"api", apiURL,
	)

	g, gctx := errgroup.WithContext(exitSignal)
	g.Go(func() error {
		if err := apiSrv.Serve(apiListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "api server")
		}
		return nil
	})
	if metricsEnabled {
		metricsURL, metricsSrv, metricsListener := startServer(ctx.String(metricsAddrFlag.Name), metrics.HTTPHandler())
		servers = append(servers, metricsSrv)
		log.Root().Info("metrics server started", "url", metricsURL)
		g.Go(func() error {
			if err := metricsSrv.Serve(metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		closeSubscriptions()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Root().Warn("failed to shut down server", "error", err)
			}
		}
		return nil
	})
	return g.Wait()
}

// invoke signs an instruction of the staking program with the known keys,
// runs it and prints the receipt.
func invoke(ctx *cli.Context, n *node, data []byte, metas []xenv.AccountMeta) error {
	kr, err := newKeyring(ctx.StringSlice(keyFlag.Name))
	if err != nil {
		return err
	}
	inv, err := newInvocation(n.ledger.StakerProgramID(), data, metas, uint64(time.Now().UnixNano()), kr)
	if err != nil {
		return err
	}
	receipt, err := n.ledger.Invoke(inv)
	if err != nil {
		return err
	}
	if err := printJSON(receipt); err != nil {
		return err
	}
	if receipt.Reverted {
		return errors.New("invocation reverted: " + receipt.Error)
	}
	return nil
}

func escrowOf(n *node, registry ledger.Address) ledger.Address {
	escrow, err := n.ledger.Escrow(registry)
	if err != nil {
		fatal(fmt.Sprintf("derive escrow: %v", err))
	}
	return escrow.Address
}

// readPositionArgs reads the position flags; optional ones may be absent.
func readPositionArgs(ctx *cli.Context, optional ...cli.StringFlag) *positionArgs {
	read := func(flag cli.StringFlag) ledger.Address {
		for _, o := range optional {
			if o.Name == flag.Name && ctx.String(flag.Name) == "" {
				return ledger.Address{}
			}
		}
		return mustAddress(ctx, flag)
	}
	return &positionArgs{
		Registry: read(registryFlag),
		User:     read(userFlag),
		Asset:    read(assetFlag),
		Custody:  read(custodyFlag),
		Rewards:  read(rewardsFlag),
		Pool:     read(poolFlag),
	}
}

func initAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	accs, err := initAccounts(n.ledger,
		mustAddress(ctx, registryFlag),
		mustAddress(ctx, ownerFlag),
		mustAddress(ctx, sourceFlag),
		mustAddress(ctx, poolFlag),
	)
	if err != nil {
		return err
	}
	return invoke(ctx, n, instruction.EncodeInitialize(ctx.Uint64(amountFlag.Name)), accs.Metas())
}

func stakeAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	accs, err := stakeAccounts(n.ledger, readPositionArgs(ctx, rewardsFlag, poolFlag))
	if err != nil {
		return err
	}
	return invoke(ctx, n, instruction.EncodeStake(), accs.Metas())
}

func unstakeAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	accs, err := unstakeAccounts(n.ledger, readPositionArgs(ctx))
	if err != nil {
		return err
	}
	return invoke(ctx, n, instruction.EncodeUnstake(), accs.Metas())
}

func harvestAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	accs, err := harvestAccounts(n.ledger, readPositionArgs(ctx, custodyFlag))
	if err != nil {
		return err
	}
	return invoke(ctx, n, instruction.EncodeHarvest(), accs.Metas())
}

func advanceAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	seconds := ctx.Uint64(secondsFlag.Name)
	if seconds == 0 {
		return errors.Errorf("missing -%s", secondsFlag.Name)
	}
	clock, err := n.ledger.Advance(seconds)
	if err != nil {
		return err
	}
	return printJSON(clock)
}

func showPlatformAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	registry := mustAddress(ctx, registryFlag)
	reg, err := n.ledger.Registry(registry)
	if err != nil {
		return err
	}
	if reg == nil {
		return errors.Errorf("platform %v not initialized", registry)
	}
	return printJSON(struct {
		Address  ledger.Address `json:"address"`
		Escrow   ledger.Address `json:"escrow"`
		Registry any            `json:"registry"`
	}{registry, escrowOf(n, registry), reg})
}

func showPositionAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	addr, pos, err := n.ledger.Position(mustAddress(ctx, userFlag), mustAddress(ctx, assetFlag))
	if err != nil {
		return err
	}
	return printJSON(struct {
		Address  ledger.Address `json:"address"`
		Position any            `json:"position"`
		Clock    chain.Clock    `json:"clock"`
	}{addr, pos, n.ledger.Clock()})
}

func showAccountAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	acc, err := n.ledger.Account(mustAddress(ctx, addressFlag))
	if err != nil {
		return err
	}
	return printJSON(acc)
}

func showTokenAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	acc, err := n.ledger.TokenAccount(mustAddress(ctx, addressFlag))
	if err != nil {
		return err
	}
	return printJSON(acc)
}

func showEventsAction(ctx *cli.Context) error {
	n := openNode(ctx)
	defer n.Close()

	criteria := &logdb.EventCriteria{}
	if ctx.String(userFlag.Name) != "" {
		user := mustAddress(ctx, userFlag)
		criteria.Subject = &user
	}
	if ctx.String(assetFlag.Name) != "" {
		asset := mustAddress(ctx, assetFlag)
		criteria.Object = &asset
	}
	events, err := n.ledger.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{criteria},
	})
	if err != nil {
		return err
	}
	return printJSON(events)
}

func showDevAction(_ *cli.Context) error {
	return printJSON(struct {
		Platform *genesis.DevPlatform `json:"platform"`
		Users    []genesis.DevUser    `json:"users"`
	}{genesis.DevPlatformAccounts(), genesis.DevUsers()})
}
