package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shakalnost/internal/algorithms"
	"shakalnost/internal/core"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default parameter set as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return core.EncodeSettings(os.Stdout, core.DefaultSettings())
	},
}

var randomizeCmd = &cobra.Command{
	Use:   "randomize",
	Short: "Print a random parameter set as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, _ := cmd.Flags().GetInt("seed")
		outPath, _ := cmd.Flags().GetString("output")

		s := core.DefaultSettings()
		s.RandomSeed = seed
		s = core.Randomize(s)
		if outPath == "" {
			return core.EncodeSettings(os.Stdout, s)
		}
		if err := core.SaveSettings(outPath, s); err != nil {
			return fmt.Errorf("writing settings: %w", err)
		}
		fmt.Printf("Wrote %s\n", outPath)
		return nil
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List pipeline stages in execution order",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(algorithms.All())
		}
		for i, d := range algorithms.All() {
			fmt.Printf("%d. %-13s %s\n", i+1, d.Name, d.Description)
			for _, p := range d.Parameters {
				line := fmt.Sprintf("     %-18s %-6s %s", p.Name, p.Type, p.Description)
				if len(p.Options) > 0 {
					line += " [" + strings.Join(p.Options, ", ") + "]"
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

var palettesCmd = &cobra.Command{
	Use:   "palettes",
	Short: "List the fixed palette presets",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range core.PalettePresets() {
			var p core.PalettePreset
			if err := p.UnmarshalText([]byte(name)); err != nil {
				continue
			}
			colors := algorithms.PresetColors(p)
			if len(colors) == 0 {
				continue
			}
			hex := make([]string, len(colors))
			for i, c := range colors {
				hex[i] = c.String()
			}
			fmt.Printf("%-10s %s\n", name, strings.Join(hex, " "))
		}
	},
}

func init() {
	randomizeCmd.Flags().Int("seed", 0, "Generator seed, 0 seeds from the clock")
	randomizeCmd.Flags().StringP("output", "o", "", "Write to a TOML file instead of stdout")
	stagesCmd.Flags().Bool("json", false, "Print descriptors as JSON")
	rootCmd.AddCommand(defaultsCmd, randomizeCmd, stagesCmd, palettesCmd)
}
