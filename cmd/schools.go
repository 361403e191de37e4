// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"strings"

	"enginebridge/cli/internal/bridge/model"
	"enginebridge/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	schoolsJSON   bool
	schoolsFilter string
)

// schoolsCmd lists the schools known to the engine.
var schoolsCmd = &cobra.Command{
	Use:   "schools",
	Short: "List the schools known to the engine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		session := newLogSession(cmd.ErrOrStderr(), "Loading schools")
		gw, closeGW, err := openGateway(cfg, session)
		if err != nil {
			return err
		}
		defer closeGW()

		session.Start()
		schools, err := gw.GetSchools(cmd.Context())
		session.Stop()
		if err != nil {
			logging.PresentInvocationError(cmd.ErrOrStderr(), string(model.ActionGetSchools), err)
			return presented(err)
		}

		schools = filterSchools(schools, schoolsFilter)
		if schoolsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schools)
		}
		if len(schools) == 0 {
			pterm.Fprintln(cmd.ErrOrStderr(), "No schools found")
			return nil
		}
		data := pterm.TableData{{"ID", "Name", "Country"}}
		for _, s := range schools {
			data = append(data, []string{s.ID, shortSchoolName(s.Name, 48), s.Country})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

func filterSchools(schools []model.School, query string) []model.School {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return schools
	}
	out := schools[:0:0]
	for _, s := range schools {
		if strings.Contains(strings.ToLower(s.Name), query) || s.ID == query {
			out = append(out, s)
		}
	}
	return out
}

// shortSchoolName fits name into max runes, abbreviating common words first.
func shortSchoolName(name string, max int) string {
	if len([]rune(name)) <= max {
		return name
	}
	short := schoolAbbrev.Replace(name)
	r := []rune(short)
	if len(r) <= max {
		return short
	}
	return string(r[:max-1]) + "…"
}

var schoolAbbrev = strings.NewReplacer(
	"University", "Univ.",
	"Institute", "Inst.",
	"College", "Coll.",
	"School", "Sch.",
	"Technology", "Tech.",
)

func init() {
	schoolsCmd.Flags().BoolVar(&schoolsJSON, "json", false, "Print the list as JSON")
	schoolsCmd.Flags().StringVar(&schoolsFilter, "filter", "", "Only show schools whose name contains this text, or with this ID")
	rootCmd.AddCommand(schoolsCmd)
}
