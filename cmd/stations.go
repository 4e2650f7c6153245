package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"mareo-monitor/internal/app"
	"mareo-monitor/internal/config"
	"mareo-monitor/internal/stations"
)

var stationsCmd = &cobra.Command{
	Use:   "stations [fmisid]",
	Short: "List known mareograph stations or look one up",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")

		return withServices(func(_ config.Config, svc *app.Services, _ *slog.Logger) error {
			var list []stations.Station
			switch {
			case len(args) == 1:
				station, err := svc.Stations.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				list = []stations.Station{station}
			case region != "":
				list = svc.Stations.GetStationsByRegion(region)
			default:
				list = svc.Stations.GetAllStations()
			}

			rows := make([][]string, 0, len(list))
			for _, s := range list {
				rows = append(rows, []string{
					s.ID,
					s.Name,
					s.Region,
					strconv.FormatFloat(s.Latitude, 'f', 4, 64),
					strconv.FormatFloat(s.Longitude, 'f', 4, 64),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"FMISID", "NAME", "REGION", "LAT", "LON"}, rows))
			return nil
		})
	},
}

func init() {
	stationsCmd.Flags().String("region", "", "only list stations in this region")
	rootCmd.AddCommand(stationsCmd)
}
