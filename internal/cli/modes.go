package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lumen-display/lumen/internal/daemon"
	"github.com/lumen-display/lumen/internal/infra/modes"
)

func init() {
	rootCmd.AddCommand(modesCmd)
}

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the configured display modes",
	RunE:  runModes,
}

func runModes(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}

	catalog, err := modes.NewCatalog(cfg.Display.DomainModes())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRATE\tGROUP\tCURRENT")
	for _, m := range catalog.All() {
		current := ""
		if int32(m.ID) == cfg.Display.CurrentMode {
			current = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", m.ID, m.Fps, m.Group, current)
	}
	return w.Flush()
}
