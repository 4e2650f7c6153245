package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mareo-monitor/internal/app"
	"mareo-monitor/internal/config"
	"mareo-monitor/internal/coordinator"
	"mareo-monitor/internal/entries"
	"mareo-monitor/internal/sensor"
	"mareo-monitor/pkg/fmi"
)

var sensorCmd = &cobra.Command{
	Use:   "sensor <fmisid>",
	Short: "Fetch the sea level forecast of a station once and print the sensor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timestep, _ := cmd.Flags().GetInt("timestep")
		limit, _ := cmd.Flags().GetInt("limit")

		return withServices(func(cfg config.Config, svc *app.Services, logger *slog.Logger) error {
			station, err := svc.Stations.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			entry := entries.Entry{
				Title: station.Name,
				Data: entries.Data{
					Name:      station.Name,
					Latitude:  station.Latitude,
					Longitude: station.Longitude,
				},
				Options: entries.Options{Timestep: timestep},
			}
			if entry.Data.FMISID, err = strconv.Atoi(station.ID); err != nil {
				return fmt.Errorf("invalid station id %q: %w", station.ID, err)
			}

			coord := coordinator.New(coordinator.Config{
				FMISID:        entry.Data.FMISID,
				Location:      fmi.Coordinates{Lat: station.Latitude, Lon: station.Longitude},
				Timestep:      timestep,
				UpdateTimeout: cfg.FMIUpdateTimeout,
			}, svc.Forecast, logger)

			refreshErr := coord.Refresh(cmd.Context())

			st := sensor.New(entry, coord, logger).Render()
			fmt.Fprintln(cmd.OutOrStdout(), renderSensor(st, limit))
			return refreshErr
		})
	},
}

func init() {
	sensorCmd.Flags().Int("timestep", 60, "forecast step in minutes (0 leaves the FMI default)")
	sensorCmd.Flags().Int("limit", 12, "number of forecasts to print (0 prints all)")
	rootCmd.AddCommand(sensorCmd)
}

func renderSensor(st sensor.State, limit int) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(st.Name))
	b.WriteString("\n\n")

	state := errorStyle.Render(st.State)
	if st.State != sensor.StateUnavailable {
		state = valueStyle.Render(st.State + " " + st.Unit)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("state"), state))
	b.WriteString("\n")

	if t, ok := st.Attributes[sensor.AttrTime].(string); ok {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("time"), t))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("entity"), st.EntityID))
	b.WriteString("\n")

	if forecasts, ok := st.Attributes[sensor.AttrForecasts].([]sensor.Forecast); ok && len(forecasts) > 0 {
		if limit > 0 && len(forecasts) > limit {
			forecasts = forecasts[:limit]
		}
		rows := make([][]string, 0, len(forecasts))
		for _, f := range forecasts {
			rows = append(rows, []string{f.Time, f.Height + " " + st.Unit})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"TIME", "HEIGHT"}, rows))
		b.WriteString("\n")
	}

	if attribution, ok := st.Attributes[sensor.AttrAttribution].(string); ok {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(attribution))
	}

	return contentStyle.Render(b.String())
}
