package app

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/guardian/cmd/guardian/app/options"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/guardian/fleet"
)

func newUnitsCommand(opts *options.GuardianOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the configured fleet and the return plan of each unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), unitsTable(opts))
			return err
		},
	}
}

func unitsTable(opts *options.GuardianOptions) *uitable.Table {
	fo := opts.FleetOptions
	home := model.Position{Lat: fo.HomeLat, Lon: fo.HomeLon}

	table := uitable.New()
	table.MaxColWidth = 24
	table.AddRow("UNIT", "STATUS", "BATTERY", "POSITION", "DISTANCE(m)", "ETA(s)", "ACTION")
	for _, rec := range fleet.RecordsFromOptions(fo.Units) {
		action := "-"
		emergency := false
		switch {
		case rec.Status != model.StatusActive:
		case rec.Battery <= fo.EmergencyThreshold:
			action, emergency = "emergency return", true
		case rec.Battery <= fo.RTHThreshold:
			action = "return"
		}
		plan := fleet.PlanReturn(rec.Position, home, fo.CruiseSpeed, emergency, fo.EmergencyETAFactor)
		table.AddRow(
			rec.ID,
			rec.Status,
			fmt.Sprintf("%.1f%%", rec.Battery),
			fmt.Sprintf("%.4f,%.4f@%.0fm", rec.Position.Lat, rec.Position.Lon, rec.Position.Alt),
			fmt.Sprintf("%.0f", plan.DistanceMeters),
			fmt.Sprintf("%.0f", plan.ETASeconds),
			action,
		)
	}
	return table
}
