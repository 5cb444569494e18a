package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kilianp07/healthpredictor/app"
	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/core/view"
)

type predictOptions struct {
	values map[model.Field]*float64
	json   bool
}

func init() {
	rootCmd.AddCommand(newPredictCmd())
}

func newPredictCmd() *cobra.Command {
	opts := &predictOptions{values: make(map[model.Field]*float64)}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Submit one assessment and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts)
		},
	}
	for _, f := range model.Fields() {
		spec := f.Spec()
		usage := spec.Label
		if spec.Unit != "" {
			usage += " (" + spec.Unit + ")"
		}
		opts.values[f] = cmd.Flags().Float64(spec.Key, spec.Default, usage)
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the snapshot as JSON")
	return cmd
}

func runPredict(cmd *cobra.Command, opts *predictOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	svc.Start(ctx)

	ctrl := svc.NewController(uuid.NewString())
	for _, f := range model.Fields() {
		if err := ctrl.Set(f, *opts.values[f]); err != nil {
			return err
		}
	}
	s := ctrl.Submit(ctx)

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return err
		}
	} else {
		printSnapshot(cmd, s)
	}
	if s.Phase != form.PhaseSucceeded {
		return fmt.Errorf("prediction failed: %s", s.Error)
	}
	return nil
}

func printSnapshot(cmd *cobra.Command, s form.Snapshot) {
	out := cmd.OutOrStdout()
	if s.Result == nil {
		return
	}
	r := view.BuildResult(*s.Result)
	fmt.Fprintf(out, "Health score:  %s (%s)\n", r.ScoreText, r.ScoreTier)
	fmt.Fprintf(out, "Risk category: %s\n", r.Category)
	fmt.Fprintf(out, "%s\n", r.Guidance)
}
