// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for ledger databases",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a yaml genesis file, devnet if not set",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 256,
		Usage: "megabytes of ram allocated to the main database cache",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}

	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.DurationFlag{
		Name:  "api-slow-queries-threshold",
		Usage: "log API requests slower than this duration, 0 disables",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log API requests answered with a 5xx status",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}

	registryFlag = cli.StringFlag{
		Name:  "registry",
		Value: "dev:registry",
		Usage: "platform registry address",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Value: "dev:admin",
		Usage: "platform owner address",
	}
	sourceFlag = cli.StringFlag{
		Name:  "source",
		Value: "dev:admin/rewards",
		Usage: "admin reward token account",
	}
	poolFlag = cli.StringFlag{
		Name:  "pool",
		Value: "dev:registry/pool",
		Usage: "escrow reward token account",
	}
	amountFlag = cli.Uint64Flag{
		Name:  "amount",
		Usage: "reward seed amount",
	}
	userFlag = cli.StringFlag{
		Name:  "user",
		Usage: "user wallet address",
	}
	assetFlag = cli.StringFlag{
		Name:  "asset",
		Usage: "asset (NFT mint) address",
	}
	custodyFlag = cli.StringFlag{
		Name:  "custody",
		Usage: "token account holding the asset",
	}
	rewardsFlag = cli.StringFlag{
		Name:  "rewards",
		Usage: "user reward token account",
	}
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "account address",
	}
	keyFlag = cli.StringSliceFlag{
		Name:  "key",
		Usage: "hex ed25519 seed of a signer, repeatable; devnet signers need none",
	}
	secondsFlag = cli.Uint64Flag{
		Name:  "seconds",
		Usage: "seconds to move the ledger clock forward",
	}
)
