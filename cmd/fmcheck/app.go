package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sw965/kite/model/fm/verify"
	"github.com/urfave/cli/v3"
)

var errInconsistent = errors.New("dense and sparse outputs differ")

type result struct {
	Config        verify.Config       `json:"config"`
	Reports       []verify.Report     `json:"reports"`
	Equivalence   *verify.Equivalence `json:"equivalence,omitempty"`
	Deterministic *bool               `json:"deterministic,omitempty"`
	Passed        bool                `json:"passed"`
}

func newApp() *cli.Command {
	def := verify.DefaultConfig()
	f := runFlags{}

	return &cli.Command{
		Name:  "fmcheck",
		Usage: "Check a factorization machine decision function against brute-force expansion",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML file with default values for the flags below", Destination: &f.configPath},
			&cli.IntFlag{Name: "objects", Usage: "number of synthetic rows", Value: def.NObjects, Destination: &f.nObjects},
			&cli.IntFlag{Name: "features", Usage: "number of synthetic features", Value: def.NFeatures, Destination: &f.nFeatures},
			&cli.IntFlag{Name: "order", Usage: "interaction order (1-4)", Value: def.Order, Destination: &f.order},
			&cli.IntFlag{Name: "rank", Usage: "latent factor rank", Value: def.Rank, Destination: &f.rank},
			&cli.Float64Flag{Name: "init-std", Usage: "weight initialization scale", Value: def.InitStd, Destination: &f.initStd},
			&cli.IntFlag{Name: "epochs", Usage: "training epochs (only 0 is supported)", Value: def.Epochs, Destination: &f.epochs},
			&cli.Uint64Flag{Name: "seed", Usage: "seed for data and model initialization", Value: def.Seed, Destination: &f.seed},
			&cli.IntFlag{Name: "decimal", Usage: "decimals the outputs must agree to", Value: def.Decimal, Destination: &f.decimal},
			&cli.Float64Flag{Name: "sparsity", Usage: "probability of zeroing each entry of X", Value: def.Sparsity, Destination: &f.sparsity},
			&cli.StringFlag{Name: "input", Usage: "dense, sparse or both", Value: "both", Destination: &f.input},
			&cli.BoolFlag{Name: "determinism", Usage: "also run every check twice and require identical outputs", Destination: &f.determine},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &f.jsonOutput},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: "info", Destination: &f.logLevel},
			&cli.StringFlag{Name: "log-format", Usage: "console or json", Value: "console", Destination: &f.logFormat},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if f.configPath != "" {
				fc, err := loadFileConfig(f.configPath)
				if err != nil {
					return err
				}
				applyFileConfig(c, fc, &f)
			}
			return run(c.Root().Writer, c.Root().ErrWriter, &f)
		},
	}
}

func run(out, errOut io.Writer, f *runFlags) error {
	logger, err := newLogger(errOut, f.logLevel, f.logFormat)
	if err != nil {
		return err
	}
	opts := []verify.Option{verify.WithLogger(logger)}

	cfg := f.verifyConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	res := result{Config: cfg, Reports: make([]verify.Report, 0, 2)}
	inputs := make([]verify.InputType, 0, 2)
	switch strings.ToLower(f.input) {
	case "both":
		eq, err := verify.CompareDenseSparse(cfg, verify.FMFactory, opts...)
		if err != nil {
			return err
		}
		res.Equivalence = &eq
		res.Reports = append(res.Reports, eq.Dense, eq.Sparse)
		inputs = append(inputs, verify.Dense, verify.Sparse)
	default:
		input, err := verify.ParseInputType(f.input)
		if err != nil {
			return err
		}
		report, err := verify.Run(cfg, verify.FMFactory, input, opts...)
		if err != nil {
			return err
		}
		res.Reports = append(res.Reports, report)
		inputs = append(inputs, input)
	}

	if f.determine {
		deterministic := true
		for _, input := range inputs {
			err := verify.CheckDeterminism(cfg, verify.FMFactory, input, opts...)
			if errors.Is(err, verify.ErrNondeterministic) {
				deterministic = false
				logger.Warn().Err(err).Msg("determinism check failed")
				continue
			}
			if err != nil {
				return err
			}
		}
		res.Deterministic = &deterministic
	}

	res.Passed = true
	for _, r := range res.Reports {
		res.Passed = res.Passed && r.Passed
	}
	if res.Equivalence != nil {
		res.Passed = res.Passed && res.Equivalence.Equal
	}
	if res.Deterministic != nil {
		res.Passed = res.Passed && *res.Deterministic
	}

	if err := writeResult(out, res, f.jsonOutput); err != nil {
		return err
	}
	logger.Info().Bool("passed", res.Passed).Msg("check finished")
	return res.err()
}

func (r result) err() error {
	for _, report := range r.Reports {
		if err := report.Err(); err != nil {
			return fmt.Errorf("%s input: %w", report.InputType, err)
		}
	}
	if r.Equivalence != nil && !r.Equivalence.Equal {
		return fmt.Errorf("%w: max difference %g", errInconsistent, r.Equivalence.MaxAbsDiff)
	}
	if r.Deterministic != nil && !*r.Deterministic {
		return verify.ErrNondeterministic
	}
	return nil
}

func writeResult(w io.Writer, res result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	cfg := res.Config
	fmt.Fprintf(w, "objects=%d features=%d order=%d rank=%d init_std=%g seed=%d decimal=%d sparsity=%g\n",
		cfg.NObjects, cfg.NFeatures, cfg.Order, cfg.Rank, cfg.InitStd, cfg.Seed, cfg.Decimal, cfg.Sparsity)
	for _, r := range res.Reports {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-6s %-4s max|desired-actual|=%.3e mismatches=%d\n", r.InputType, status, r.MaxAbsDiff, len(r.Mismatches))
	}
	if res.Equivalence != nil {
		fmt.Fprintf(w, "dense/sparse equal=%t max diff=%.3e\n", res.Equivalence.Equal, res.Equivalence.MaxAbsDiff)
	}
	if res.Deterministic != nil {
		fmt.Fprintf(w, "deterministic=%t\n", *res.Deterministic)
	}
	return nil
}
