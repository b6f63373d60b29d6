package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/app"
	"github.com/grovetools/areatrip/internal/routes"
	"github.com/grovetools/areatrip/logging"
	"github.com/grovetools/areatrip/tui"
	"github.com/grovetools/areatrip/tui/planner"
	"github.com/spf13/cobra"
)

type planFlags struct {
	area     string
	name     string
	date     string
	note     string
	weather  bool
	headless bool
}

// NewPlanCmd creates the plan command.
func NewPlanCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"ui"},
		Short:   "Plan a trip to an area",
		Long:    `Open the plan-trip screen for the loaded area collection. With --no-tui
the trip is saved straight from the flags.
Examples:
# interactive
areatrip plan
# scripted
areatrip plan --no-tui --area a7 --date 2024-05-01`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, func(ctx context.Context, a *app.App) error {
				if _, err := a.Navigator.Navigate(routes.PathPlanTrip); err != nil {
					return err
				}
				if f.area != "" {
					if err := preselect(a, f.area); err != nil {
						return err
					}
				}
				if f.headless {
					return planHeadless(ctx, cmd, a, f)
				}
				return planInteractive(cmd, a)
			})
		},
	}
	cmd.Flags().StringVar(&f.area, "area", "", "Id of the area to plan for")
	cmd.Flags().StringVar(&f.name, "name", "", "Trip name")
	cmd.Flags().StringVar(&f.date, "date", "", "Trip date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&f.note, "note", "", "Trip note")
	cmd.Flags().BoolVar(&f.weather, "weather", false, "Open the weather panel for the area")
	cmd.Flags().BoolVar(&f.headless, "no-tui", false, "Save without opening the planner screen")
	return cmd
}

func preselect(a *app.App, id string) error {
	collection := a.Store.GetState().Areas.BirdAreas
	if collection == nil {
		return errors.InvalidArgument("area", "no area collection is loaded (set areas.file)")
	}
	area, ok := collection.Find(id)
	if !ok {
		return errors.InvalidArgument("area", fmt.Sprintf("%q is not in the loaded collection", id))
	}
	a.Selection.Select(area.Clicked())
	return nil
}

func planHeadless(ctx context.Context, cmd *cobra.Command, a *app.App, f planFlags) error {
	p := a.Planner
	if f.name != "" {
		p.SetName(f.name)
	}
	if f.note != "" {
		p.SetNote(f.note)
	}
	if f.date != "" {
		date, err := time.ParseInLocation(planner.DateLayout, f.date, time.Local)
		if err != nil {
			return errors.InvalidArgument("date", "must look like "+planner.DateLayout)
		}
		p.SetDate(&date)
	}
	if f.weather {
		if err := p.OpenWeather(); err != nil {
			return err
		}
	}

	id, err := p.Submit(ctx)
	if err != nil {
		return err
	}
	pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
	pretty.Success("Trip saved")
	pretty.Field("id", id)
	return nil
}

func planInteractive(cmd *cobra.Command, a *app.App) error {
	model := planner.New(a.Store, a.Planner, a.Selection)
	defer model.Close()

	if _, err := tui.Run(model); err != nil {
		return err
	}
	if err := model.Err(); err != nil && model.SavedID() == "" {
		return err
	}
	if id := model.SavedID(); id != "" {
		pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
		pretty.Success("Trip saved")
		pretty.Field("id", id)
	}
	return nil
}
