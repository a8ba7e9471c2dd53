package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scoreflow/hyouka/internal/output"
)

// render writes v to the command's stdout in the requested format.
func render(c *cobra.Command, v any, format string, header output.Header) error {
	b, err := output.Render(v, output.Format(format), header)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	fmt.Fprintln(c.OutOrStdout(), string(b))
	return nil
}
