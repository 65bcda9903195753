package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Inspect stored planning runs"}
	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyProductCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.DSN == "" {
				return fmt.Errorf("no store configured: set --store, PRODPLAN_STORE or store.dsn")
			}
			s, err := openStore(cmd.Context(), cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			output.WriteRunList(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func historyShowCmd() *cobra.Command {
	var format, out, attainment string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Render a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.DSN == "" {
				return fmt.Errorf("no store configured: set --store, PRODPLAN_STORE or store.dsn")
			}
			s, err := openStore(cmd.Context(), cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if attainment == "" {
				attainment = result.Attainment
			}
			mode, err := entities.ParseAttainmentRounding(attainment)
			if err != nil {
				return err
			}
			return output.Generate(cmd.Context(), result, output.Config{
				Format:     format,
				Output:     out,
				Verbose:    viper.GetBool("verbose"),
				Attainment: mode,
				Writer:     cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json, csv, html")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file or directory")
	cmd.Flags().StringVar(&attainment, "attainment", "", "attainment rounding: exact or legacy (default: as stored)")
	return cmd
}

func historyProductCmd() *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "product <product-id>",
		Short: "Show how one product fared across stored runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.DSN == "" {
				return fmt.Errorf("no store configured: set --store, PRODPLAN_STORE or store.dsn")
			}
			s, err := openStore(cmd.Context(), cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer s.Close()

			history, err := s.ProductHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(history)
			}
			output.WriteProductHistory(cmd.OutOrStdout(), history)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}
