package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"CBDesk/internal/services/valuation"
	"CBDesk/internal/usecase"
	"CBDesk/pkg/config"
	"CBDesk/pkg/util"
)

func newValueCmd(w Wiring, load func() (*config.Config, error)) *cobra.Command {
	var (
		p     usecase.EvaluateParams
		rates string
	)

	cmd := &cobra.Command{
		Use:   "value [instrument-id]",
		Short: "Evaluate a convertible bond",
		Long: `Compute parity, premium, implied spot, fair value band, auction strength
and the reverse auction table. With an instrument id, a missing spot or
conversion price is fetched from the configured quote sources.`,
		Example: `  cbdesk value --conversion-price 246.6 --spot 250 --cb-price 150
  cbdesk value 2330 --cb-price 118 --floor 105
  cbdesk value 2330 --bond 23302 --cb-price 118 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			if len(args) == 1 {
				p.InstrumentID = args[0]
			}
			if rates != "" {
				rs, err := util.SplitFloats(rates)
				if err != nil {
					return fmt.Errorf("--rates: %w", err)
				}
				p.Inputs.Rates = rs
			}

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
			ev, err := svc.Desk.Evaluate(ctx, p)
			if err != nil {
				return err
			}
			if out.IsJSON() {
				return out.JSON(ev)
			}
			printEvaluation(out, ev)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64VarP(&p.Inputs.ConversionPrice, "conversion-price", "k", 0, "conversion price K")
	f.Float64Var(&p.Inputs.Floor, "floor", 0, "auction floor / reference cost (policy default when 0)")
	f.Float64VarP(&p.Inputs.Spot, "spot", "s", 0, "spot price S")
	f.Float64VarP(&p.Inputs.CBPrice, "cb-price", "p", 0, "CB price P per 100 face")
	f.StringVar(&p.BondCode, "bond", "", "bond code when the issuer has several series")
	f.StringVar(&rates, "rates", "", "reverse table premium rates, e.g. 0.1,0.15,0.2")
	f.BoolVar(&p.Refresh, "refresh", false, "bypass the quote cache")
	return cmd
}

func printEvaluation(out *Output, ev *usecase.Evaluation) {
	r := ev.Report
	title := "Valuation"
	if ev.InstrumentID != "" {
		title += " " + ev.InstrumentID
	}
	out.Title(title)

	out.Row("conversion price", "%s", num(r.Inputs.ConversionPrice))
	out.Row("spot", "%s", num(r.Inputs.Spot))
	out.Row("cb price", "%s", num(r.Inputs.CBPrice))
	if r.BaselineSource != "" {
		out.Row("baseline", "%.2f %s", r.Baseline, out.Dim("("+r.BaselineSource+")"))
	}

	if rs := ev.Resolution; rs != nil {
		if rs.Spot != nil {
			out.Row("spot source", "%s %s", rs.Spot.Source, out.Dim(string(rs.Spot.Venue)))
		}
		if rs.Bond != nil {
			out.Row("terms source", "%s %s %s", rs.Bond.Source, rs.Bond.BondCode, rs.Bond.BondName)
		}
		for input, f := range rs.Errors {
			out.Warning("  %s unresolved: %s", input, f.Message)
		}
	}

	out.Printf("\n")
	if r.Parity != nil {
		out.Row("parity", "%.2f %s", *r.Parity, out.Band(r.ParityCharacter.String()))
	}
	if r.Premium != nil {
		out.Row("premium", "%.2f%% %s", *r.Premium, out.Band(r.PremiumBand.String()))
	}
	if r.ImpliedSpot != nil {
		out.Row("implied spot", "%.2f", *r.ImpliedSpot)
	}
	if r.FairValue != nil {
		out.Row("fair value band", "%.2f - %.2f", r.FairValue.Low, r.FairValue.High)
	}
	if r.RequiredPremium != nil {
		out.Row("required premium", "%.2f%%", *r.RequiredPremium)
	}
	if r.AuctionStrength != nil {
		out.Row("auction strength", "%s", out.Band(r.AuctionStrength.String()))
	}

	if len(r.ReverseTable) > 0 {
		out.Printf("\n")
		out.Title("Reverse auction table")
		for _, row := range r.ReverseTable {
			marker := ""
			if row.NearSpot {
				marker = " <- near spot"
			}
			out.Row(fmt.Sprintf("premium %.0f%%", row.Rate*100), "%.2f%s", row.ImpliedSpot, marker)
		}
	}

	if len(r.Errors) > 0 {
		out.Printf("\n")
		keys := []string{
			valuation.MetricParity, valuation.MetricPremium, valuation.MetricImpliedSpot,
			valuation.MetricFairValue, valuation.MetricRequiredPremium,
			valuation.MetricAuctionStrength, valuation.MetricReverseTable,
		}
		var missing []string
		for _, k := range keys {
			if _, ok := r.Errors[k]; ok {
				missing = append(missing, k)
			}
		}
		out.Printf("%s\n", out.Dim("not computed: "+strings.Join(missing, ", ")))
	}
}

func num(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
