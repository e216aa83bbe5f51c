package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	facilityName      string
	facilityTest      bool
	facilityUseVision bool
)

var facilityCmd = &cobra.Command{
	Use:   "facility",
	Short: "Enrich a single facility by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		facility, err := st.FindFacilityByName(ctx, facilityName)
		if err != nil {
			return err
		}
		if facility == nil {
			return eris.Errorf("no facility matching %q", facilityName)
		}

		// Single-facility mode runs vision unconditionally when
		// requested, not just as a last resort.
		p, cleanup := buildPipeline(st, facilityTest, facilityUseVision, facilityUseVision)
		defer cleanup()
		result := p.Run(ctx, *facility)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal result")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	facilityCmd.Flags().StringVar(&facilityName, "name", "", "facility name (case-insensitive substring match)")
	facilityCmd.Flags().BoolVar(&facilityTest, "test", false, "extract without writing")
	facilityCmd.Flags().BoolVar(&facilityUseVision, "use-vision", false, "always run vision extraction")
	_ = facilityCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(facilityCmd)
}
