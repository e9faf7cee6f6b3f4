package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jsphweid/boomparts/config"
	"github.com/jsphweid/boomparts/model"
)

func init() {
	rootCmd.AddCommand(inventoryCmd)
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Lists the configured tubes",
	Long:  `Lists every tube in the configured inventory with its colour, pitch and copies owned.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		entries, err := inventoryEntries(cfg)
		if err != nil {
			return err
		}
		printInventory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func inventoryEntries(cfg *config.Config) ([]model.InventoryEntry, error) {
	inv, err := cfg.BuildInventory()
	if err != nil {
		return nil, err
	}
	overrides, err := cfg.CopyOverrideMap()
	if err != nil {
		return nil, err
	}
	var res []model.InventoryEntry
	for _, t := range inv.Tubes() {
		copies := cfg.Inventory.Copies
		if n, ok := overrides[t]; ok {
			copies = n
		}
		res = append(res, model.InventoryEntry{
			Name:   t.Name(),
			Color:  t.Color(),
			Pitch:  t.Pitch(inv.BaseOctave).Name(),
			Copies: copies,
		})
	}
	return res, nil
}

func printInventory(out io.Writer, entries []model.InventoryEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Color, e.Pitch, strconv.Itoa(e.Copies)})
	}
	fmt.Fprintln(out, renderTable([]string{"Tube", "Colour", "Pitch", "Copies"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
}
