package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jacobsa/timeutil"
	"github.com/relfs/notefs/internal/store"
	"github.com/spf13/cobra"
)

var listUsersCmd = &cobra.Command{
	Use:   "list-users database",
	Short: "Print every distinct principal recorded in database, with its folder and note counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := store.Open(args[0], timeutil.RealClock())
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer gw.Close()

		summaries, err := gw.Principals(cmd.Context())
		if err != nil {
			return fmt.Errorf("list principals: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PRINCIPAL\tFOLDERS\tNOTES")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%d\t%d\n", s.Principal, s.FolderCount, s.NoteCount)
		}
		return w.Flush()
	},
}
