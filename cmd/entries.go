package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mareo-monitor/internal/app"
	"mareo-monitor/internal/config"
	"mareo-monitor/internal/entries"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage configured stations",
	Long: `Manage configured stations. Changes are picked up by a running
server on its next start.`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured stations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(_ config.Config, svc *app.Services, _ *slog.Logger) error {
			list, err := svc.Store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No stations configured"))
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, e := range list {
				timestep := "default"
				if e.Options.Timestep > 0 {
					timestep = strconv.Itoa(e.Options.Timestep) + " min"
				}
				rows = append(rows, []string{e.EntryID, strconv.Itoa(e.Data.FMISID), e.Title, e.Data.Name, timestep})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ENTRY", "FMISID", "STATION", "NAME", "TIMESTEP"}, rows))
			return nil
		})
	},
}

var entriesAddCmd = &cobra.Command{
	Use:   "add <fmisid>",
	Short: "Configure a mareograph station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		timestep, _ := cmd.Flags().GetInt("timestep")

		return withServices(func(_ config.Config, svc *app.Services, _ *slog.Logger) error {
			res := svc.Flow.StepUser(cmd.Context(), &entries.UserInput{
				FMISID:   args[0],
				Name:     name,
				Timestep: timestep,
			})
			return printFlowResult(cmd, res)
		})
	},
}

var entriesRemoveCmd = &cobra.Command{
	Use:   "remove <entry-id|fmisid>",
	Short: "Remove a configured station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(_ config.Config, svc *app.Services, _ *slog.Logger) error {
			entry, err := findEntry(cmd.Context(), svc.Store, args[0])
			if err != nil {
				return err
			}
			if err := svc.Store.Delete(cmd.Context(), entry.EntryID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Removed"), entry.Title)
			return nil
		})
	},
}

var entriesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Configure every station listed in a yaml file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(_ config.Config, svc *app.Services, _ *slog.Logger) error {
			res, err := svc.Importer.ImportPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range res.Created {
				fmt.Fprintln(out, okStyle.Render("Created"), e.Title)
			}
			for _, id := range res.Skipped {
				fmt.Fprintln(out, mutedStyle.Render("Skipped"), id, mutedStyle.Render("(already configured)"))
			}

			for _, f := range res.Failed {
				fmt.Fprintln(out, errorStyle.Render("Failed"), f.Error())
			}

			if len(res.Failed) > 0 {
				return fmt.Errorf("%d stations failed to import", len(res.Failed))
			}
			return nil
		})
	},
}

func init() {
	entriesAddCmd.Flags().String("name", "", "display name (defaults to the station name)")
	entriesAddCmd.Flags().Int("timestep", 0, "forecast step in minutes (0 leaves the FMI default)")

	entriesCmd.AddCommand(entriesListCmd, entriesAddCmd, entriesRemoveCmd, entriesImportCmd)
	rootCmd.AddCommand(entriesCmd)
}

// findEntry accepts an entry id or a station id
func findEntry(ctx context.Context, store entries.Store, ref string) (entries.Entry, error) {
	if _, err := strconv.Atoi(ref); err == nil {
		return store.GetByUniqueID(ctx, ref)
	}
	return store.Get(ctx, ref)
}

func printFlowResult(cmd *cobra.Command, res entries.FlowResult) error {
	out := cmd.OutOrStdout()

	switch res.Type {
	case entries.ResultCreateEntry:
		fmt.Fprintln(out, okStyle.Render("Created"), res.Title)
		fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render("entry id"), res.Entry.EntryID))
		return nil
	case entries.ResultAbort:
		return fmt.Errorf("setup aborted: %s", res.Reason)
	default:
		for field, code := range res.Errors {
			fmt.Fprintln(out, errorStyle.Render(field), code)
		}
		return fmt.Errorf("invalid input")
	}
}
