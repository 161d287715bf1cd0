package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/sinewave/internal/animation"
	"github.com/MRamiBalles/sinewave/internal/view"
)

func newFrameCmd() *cobra.Command {
	var (
		count  uint64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Print the rendered markup of one frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frame := view.NewFrame(animation.State{Count: count})
			out := cmd.OutOrStdout()
			if !asJSON {
				_, err := fmt.Fprintln(out, frame.HTML)
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(frame)
		},
	}

	cmd.Flags().Uint64Var(&count, "count", 0, "counter value to render")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the whole frame as JSON")
	return cmd
}
