package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MoleSir/reda-lef/tech"
)

var spacingCmd = &cobra.Command{
	Use:   "spacing <tech.lef> <layer> <width> <parallel-run-length>",
	Short: "Look up the required spacing for a wire on a routing layer",
	Args:  cobra.ExactArgs(4),
	RunE:  runSpacing,
}

func init() {
	rootCmd.AddCommand(spacingCmd)
}

func runSpacing(cmd *cobra.Command, args []string) error {
	path, layer := args[0], args[1]
	width, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("width %q: %w", args[2], err)
	}
	prl, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("parallel run length %q: %w", args[3], err)
	}

	res, err := tech.ReadFile(cmd.Context(), path, readOptions()...)
	reportFindings(res)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	spacing, err := res.Tech.SpacingFor(layer, width, prl)
	if err != nil {
		return err
	}
	fmt.Printf("%g\n", spacing)
	return nil
}
