package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"assetsync-service/internal/analytics"
	"assetsync-service/internal/application"
	"assetsync-service/internal/bootstrap"
	"assetsync-service/internal/domain"
	"assetsync-service/internal/infrastructure/export"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

var commands = []subcommands.Command{
	&snapshotCmd{},
	&valuationCmd{},
	&timelineCmd{},
	&quotaCmd{},
	&setRoleCmd{},
}

// run builds the services, runs fn and maps its error to an exit status.
func run(ctx context.Context, fn func(*bootstrap.CLI) error) subcommands.ExitStatus {
	cli, cleanup, err := bootstrap.InitCLI(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()
	if err := fn(cli); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(f *flag.FlagSet, msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	f.Usage()
	return subcommands.ExitUsageError
}

type snapshotCmd struct {
	user    string
	symbol  string
	grades  bool
	trusted bool
	perf    bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "print the canonical snapshot of a symbol" }
func (*snapshotCmd) Usage() string {
	return `assetctl snapshot -u <user> -s <symbol> [-grades] [-trusted] [-perf]

  Serves the symbol through the freshness tiers, refreshing from upstream when the
  cache is stale and the user has quota left. With -perf only the drawdown and annual
  returns of the symbol's price history are printed.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "user id charged for upstream calls")
	f.StringVar(&c.symbol, "s", "", "ticker symbol")
	f.BoolVar(&c.grades, "grades", false, "print the analyst grade history instead")
	f.BoolVar(&c.trusted, "trusted", false, "accept degraded cache without spending quota")
	f.BoolVar(&c.perf, "perf", false, "print the performance summary of the price history")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.symbol == "" {
		return usageError(f, "-u and -s are required")
	}
	req := application.SnapshotRequest{Symbol: c.symbol, UserID: c.user, Trusted: c.trusted}
	return run(ctx, func(cli *bootstrap.CLI) error {
		if c.grades {
			res, err := cli.Snapshots.GetGradesHistory(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(res)
		}
		res, err := cli.Snapshots.GetSnapshot(ctx, req)
		if err != nil {
			return err
		}
		if c.perf {
			return printJSON(instrumentPerformance(res.Snapshot))
		}
		return printJSON(res)
	})
}

type performanceReport struct {
	Symbol  domain.Symbol             `json:"symbol"`
	Points  int                       `json:"points"`
	Summary domain.PerformanceSummary `json:"summary"`
}

func instrumentPerformance(snap domain.CanonicalAssetSnapshot) performanceReport {
	points := analytics.HistoryPoints(snap.History)
	return performanceReport{Symbol: snap.Symbol, Points: len(points), Summary: analytics.Summarize(points)}
}

type valuationCmd struct {
	user   string
	symbol string
}

func (*valuationCmd) Name() string     { return "valuation" }
func (*valuationCmd) Synopsis() string { return "reconcile the DCF estimates of a symbol" }
func (*valuationCmd) Usage() string {
	return `assetctl valuation -u <user> -s <symbol>
`
}

func (c *valuationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "user id charged for upstream calls")
	f.StringVar(&c.symbol, "s", "", "ticker symbol")
}

func (c *valuationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.symbol == "" {
		return usageError(f, "-u and -s are required")
	}
	return run(ctx, func(cli *bootstrap.CLI) error {
		res, err := cli.Valuations.ForSymbol(ctx, application.SnapshotRequest{Symbol: c.symbol, UserID: c.user})
		if err != nil {
			return err
		}
		return printJSON(res)
	})
}

type timelineCmd struct {
	user     string
	holdings string
	out      string
}

func (*timelineCmd) Name() string     { return "timeline" }
func (*timelineCmd) Synopsis() string { return "build a holdings-weighted value timeline" }
func (*timelineCmd) Usage() string {
	return `assetctl timeline -u <user> -h AAPL=10,MSFT=2.5 [-o timeline.parquet]

  Aligns the price histories of the holdings on the driver symbol's dates and prints
  the performance summary. With -o the points are written as parquet or json,
  chosen by the file extension.
`
}

func (c *timelineCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "user id")
	f.StringVar(&c.holdings, "h", "", "comma separated SYMBOL=QUANTITY pairs")
	f.StringVar(&c.out, "o", "", "write the points to this file")
}

func (c *timelineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.holdings == "" {
		return usageError(f, "-u and -h are required")
	}
	holdings, err := parseHoldings(c.holdings)
	if err != nil {
		return usageError(f, err.Error())
	}
	return run(ctx, func(cli *bootstrap.CLI) error {
		tl, err := cli.Portfolio.BuildTimeline(ctx, c.user, holdings)
		if err != nil {
			return err
		}
		if c.out != "" {
			if err := export.SaveTimeline(tl.Points, c.out); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %d points to %s\n", len(tl.Points), c.out)
		}
		return printJSON(struct {
			Driver  domain.Symbol                   `json:"driver"`
			Points  int                             `json:"points"`
			Summary domain.PerformanceSummary       `json:"summary"`
			Notices map[domain.Symbol]domain.Notice `json:"notices,omitempty"`
		}{tl.DriverSymbol, len(tl.Points), tl.Summary, tl.Notices})
	})
}

func parseHoldings(s string) ([]domain.Holding, error) {
	var out []domain.Holding
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sym, qty, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("holding %q: want SYMBOL=QUANTITY", part)
		}
		q, err := decimal.NewFromString(strings.TrimSpace(qty))
		if err != nil {
			return nil, fmt.Errorf("holding %q: %w", part, err)
		}
		out = append(out, domain.Holding{Symbol: domain.Symbol(strings.TrimSpace(sym)), Quantity: q})
	}
	if len(out) == 0 {
		return nil, errors.New("no holdings given")
	}
	return out, nil
}

type quotaCmd struct {
	user string
}

func (*quotaCmd) Name() string     { return "quota" }
func (*quotaCmd) Synopsis() string { return "show a user's daily upstream quota" }
func (*quotaCmd) Usage() string {
	return `assetctl quota -u <user>
`
}

func (c *quotaCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "user id")
}

func (c *quotaCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return usageError(f, "-u is required")
	}
	return run(ctx, func(cli *bootstrap.CLI) error {
		st, err := cli.Ledger.Status(ctx, c.user)
		if err != nil {
			return err
		}
		return printJSON(st)
	})
}

type setRoleCmd struct {
	user string
	role string
}

func (*setRoleCmd) Name() string     { return "set-role" }
func (*setRoleCmd) Synopsis() string { return "create a user or change their role" }
func (*setRoleCmd) Usage() string {
	return `assetctl set-role -u <user> -r <free|pro|admin>
`
}

func (c *setRoleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "user id")
	f.StringVar(&c.role, "r", string(domain.RoleFree), "role")
}

func (c *setRoleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return usageError(f, "-u is required")
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(c.role)))
	return run(ctx, func(cli *bootstrap.CLI) error {
		if err := cli.Ledger.SetRole(ctx, c.user, role); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", c.user, role)
		return nil
	})
}
