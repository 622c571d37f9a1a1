package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobflow/jobflow-backend/internal/period"
)

type AccrueOptions struct {
	*RootOptions
	From   string
	To     string
	UserID int
}

// NewAccrueCommand runs the accrual outside the monthly job, for backfills
// and corrections.
func NewAccrueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccrueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "accrue",
		Short: "Compute and store vacation accrual for a period",
		Long: `Compute worked, planned and overtime hours and the vacation accrued for
the period, and store the result per employee. Without --from and --to the
previous calendar month is used.

Example:
  jobflow accrue
  jobflow accrue --from 2025-01-01 --to 2025-01-31 --user 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccrue(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.UserID, "user", 0, "only this employee")
	return cmd
}

func runAccrue(cmd *cobra.Command, opts *AccrueOptions) error {
	per := period.PreviousMonth(time.Now())
	if opts.From != "" || opts.To != "" {
		p, err := period.Parse(opts.From, opts.To)
		if err != nil {
			return err
		}
		per = p
	}

	ctx := cmd.Context()
	e, err := setup(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	svc := buildServices(e)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if opts.UserID != 0 {
		rec, err := svc.accrual.Accrue(ctx, opts.UserID, per)
		if err != nil {
			return err
		}
		return enc.Encode(rec)
	}

	res, err := svc.accrual.RunAll(ctx, per)
	if err != nil {
		return err
	}
	return enc.Encode(res)
}
