package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/grovetools/areatrip/cli"
	"github.com/grovetools/areatrip/internal/app"
	"github.com/grovetools/areatrip/logging"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/grovetools/areatrip/tui/theme"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewTripsCmd creates the trips command group.
func NewTripsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "List, inspect and repair saved trips",
	}
	cmd.AddCommand(newTripsListCmd())
	cmd.AddCommand(newTripsOrphansCmd())
	cmd.AddCommand(newTripsShowCmd())
	cmd.AddCommand(newTripsRepairCmd())
	return cmd
}

func newTripsListCmd() *cobra.Command {
	var orphans bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your trips, newest first",
		Long: `List the trips of the signed-in user.

Trips whose second write never landed have no id and are marked as orphaned.
Use --orphans to list only those.
Examples:
# all trips
areatrip trips list
# trips that need 'areatrip trips repair'
areatrip trips list --orphans`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTrips(cmd, orphans)
		},
	}
	cmd.Flags().BoolVar(&orphans, "orphans", false, "Only list trips saved without their id")
	return cmd
}

func newTripsOrphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "List trips saved without their id",
		Long: `List trips whose second write never landed. Each can be fixed with
'areatrip trips repair <docId>'. Same as 'areatrip trips list --orphans'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTrips(cmd, true)
		},
	}
}

func listTrips(cmd *cobra.Command, orphans bool) error {
	return runApp(cmd, func(ctx context.Context, a *app.App) error {
		user, err := a.Session.RequireUser("list trips")
		if err != nil {
			return err
		}

		var trips []models.Trip
		if orphans {
			trips, err = a.Trips.FindOrphans(ctx, user.UID)
		} else {
			trips, err = a.Trips.ListTrips(ctx, user.UID)
		}
		if err != nil {
			return err
		}

		if cli.GetOptions(cmd).JSONOutput {
			if trips == nil {
				trips = []models.Trip{}
			}
			return writeJSON(cmd.OutOrStdout(), trips)
		}
		if len(trips) == 0 {
			logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr()).InfoPretty("No trips yet.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), tripTable(trips, cli.TerminalWidth()))
		return nil
	})
}

// tripTable renders trips in columns sized to width.
func tripTable(trips []models.Trip, width int) *uitable.Table {
	t := theme.DefaultTheme
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = uint(width / 4)
	tbl.Wrap = true

	tbl.AddRow(t.TableHeader.Render("ID"), t.TableHeader.Render("DATE"), t.TableHeader.Render("NAME"), t.TableHeader.Render("AREA"), t.TableHeader.Render("NOTES"))
	for _, trip := range trips {
		id := trip.ID
		if trip.Orphaned() {
			id = t.Warning.Render(trip.Key + " (orphaned)")
		}
		tbl.AddRow(id, trip.Date.Local().Format("2006-01-02"), trip.Name, trip.AreaName, strings.Join(trip.Notes, "; "))
	}
	return tbl
}

func newTripsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Session.RequireUser("show trip")
				if err != nil {
					return err
				}
				trip, err := a.Trips.GetTrip(ctx, user.UID, args[0])
				if err != nil {
					return err
				}
				if cli.GetOptions(cmd).JSONOutput {
					return writeJSON(cmd.OutOrStdout(), trip)
				}
				return writeTrip(cmd.OutOrStdout(), trip)
			})
		},
	}
}

func newTripsRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair <key>",
		Short: "Finish a trip saved without its id",
		Long: `Write the missing id field of an orphaned trip.

Repair is never automatic: a trip only becomes orphaned when the second write
failed, and that failure was reported when the trip was saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Session.RequireUser("repair trip")
				if err != nil {
					return err
				}
				trip, err := a.Trips.RepairOrphan(ctx, user.UID, args[0])
				if err != nil {
					return err
				}
				pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
				pretty.Success("Trip repaired")
				pretty.Field("id", trip.ID)
				return nil
			})
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTrip prints a trip as YAML, keyed like the stored document.
func writeTrip(w io.Writer, trip models.Trip) error {
	doc := map[string]interface{}{
		models.FieldID:       trip.ID,
		models.FieldAreaID:   trip.AreaID,
		models.FieldAreaName: trip.AreaName,
		models.FieldPosition: map[string]float64{"lat": trip.Position.Lat, "lng": trip.Position.Lng},
		models.FieldName:     trip.Name,
		models.FieldDate:     trip.Date.Local().Format("2006-01-02"),
		models.FieldNotes:    trip.Notes,
	}
	if trip.Orphaned() {
		doc["key"] = trip.Key
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}
