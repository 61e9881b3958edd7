package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/birdtracker/birdtracker/pkg/tracker"
)

var trackerJSON bool

var trackerCmd = &cobra.Command{
	Use:   "tracker [file]",
	Short: "Summarize the sighting list",
	Long: `Tracker parses the plain-text sighting list (default public/birds.txt)
and prints each family with its species and sighting dates.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			_, cfg := loadConfig()
			path = cfg.Paths.Tracker
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fatal("Error reading tracker file", err)
		}
		families := tracker.Parse(string(data))

		out := cmd.OutOrStdout()
		if trackerJSON {
			if err := writeJSON(out, families); err != nil {
				fatal("Error encoding result", err)
			}
			return
		}

		var rows [][]string
		for _, f := range families {
			for _, s := range f.Species {
				seen := ""
				if s.Spotted {
					seen = s.SpottedDate
				}
				rows = append(rows, []string{f.Family, strconv.Itoa(s.Index), s.Name, seen})
			}
		}
		fmt.Fprintln(out, tracker.Title(tracker.Spotted(families), tracker.Total(families)))
		fmt.Fprintln(out, renderTable(
			[]string{"Family", "#", "Species", "Spotted"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			shouldColorize(out),
		))
	},
}

func init() {
	trackerCmd.Flags().BoolVar(&trackerJSON, "json", false, "Output the parsed list as JSON")
	rootCmd.AddCommand(trackerCmd)
}
