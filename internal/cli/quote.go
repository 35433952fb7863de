package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/service"
	"CBDesk/internal/services/resolver"
	"CBDesk/pkg/config"
)

func newQuoteCmd(w Wiring, load func() (*config.Config, error)) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:     "quote <instrument-id>",
		Short:   "Resolve the spot price of a stock",
		Example: "  cbdesk quote 2330\n  cbdesk quote 6488 --refresh --json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			return withServices(cmd, w, load, refresh, func(ctx context.Context, quotes service.QuoteResolver) error {
				q, err := quotes.ResolveQuote(ctx, args[0])
				if err != nil {
					printAttempts(out, err)
					return err
				}
				if out.IsJSON() {
					return out.JSON(q)
				}
				out.Title("Spot " + q.InstrumentID)
				out.Row("price", "%.2f", q.Price)
				out.Row("source", "%s", q.Source)
				if q.Venue != "" {
					out.Row("venue", "%s", q.Venue)
				}
				out.Row("as of", "%s", q.Timestamp.Format("2006-01-02 15:04:05 MST"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the quote cache")
	return cmd
}

func newTermsCmd(w Wiring, load func() (*config.Config, error)) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:     "terms <instrument-id>",
		Short:   "List the convertible bonds of an issuer with their conversion prices",
		Example: "  cbdesk terms 2330",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			return withServices(cmd, w, load, refresh, func(ctx context.Context, quotes service.QuoteResolver) error {
				t, err := quotes.ResolveTerms(ctx, args[0])
				if err != nil {
					printAttempts(out, err)
					return err
				}
				if out.IsJSON() {
					return out.JSON(t)
				}
				out.Title("CB terms " + t.InstrumentID + " " + out.Dim("("+t.Source+")"))
				for _, b := range t.Bonds {
					out.Row(b.BondCode+" "+b.BondName, "%.2f", b.ConversionPrice)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the quote cache")
	return cmd
}

func withServices(cmd *cobra.Command, w Wiring, load func() (*config.Config, error), refresh bool, fn func(context.Context, service.QuoteResolver) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	svc, cleanup, err := w.Services(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if refresh {
		ctx = resolver.NoCache(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Desk.Timeout)
	defer cancel()
	return fn(ctx, svc.Quotes)
}

func printAttempts(out *Output, err error) {
	var ex *errs.ExhaustedError
	if out.IsJSON() || !errors.As(err, &ex) {
		return
	}
	out.Warning("no source answered for %s", ex.ID)
	for _, a := range ex.Attempts {
		out.Row(a.Provider, "%s: %s", a.Kind, a.Reason)
	}
}
