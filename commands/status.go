package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/facultyatlas/export"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the effective environment",
		Long: `Status summarizes the effective configuration: which cache backend
discovery will use, how many patterns are cached, and whether extras
like department overrides and NATS publishing are enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(root.logLevel)
			cfg, err := loadConfig(root, logger)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n\n", appName, Version)
			fmt.Printf("user agent:          %s\n", cfg.HTTP.UserAgent)
			fmt.Printf("respect robots.txt:  %t\n", cfg.HTTP.RespectRobots)

			switch {
			case cfg.Mongo.URI != "":
				fmt.Printf("pattern cache:       mongo (%s/%s)\n", cfg.Mongo.Database, cfg.Mongo.Collection)
			case cfg.Discovery.CacheDir != "":
				fmt.Printf("pattern cache:       %s (%d cached)\n",
					cfg.Discovery.CacheDir, countPatternFiles(cfg.Discovery.CacheDir))
			default:
				fmt.Println("pattern cache:       memory (not persisted)")
			}

			if cfg.Discovery.OverridesFile != "" {
				state := "missing"
				if _, err := os.Stat(cfg.Discovery.OverridesFile); err == nil {
					state = "loaded"
				}
				fmt.Printf("overrides file:      %s (%s)\n", cfg.Discovery.OverridesFile, state)
			} else {
				fmt.Println("overrides file:      built-ins only")
			}

			if cfg.NATS.URL != "" {
				fmt.Printf("graph publishing:    %s (prefix %s)\n", cfg.NATS.URL, cfg.NATS.SubjectPrefix)
			} else {
				fmt.Println("graph publishing:    disabled")
			}

			fmt.Printf("export dir:          %s\n", cfg.Export.Dir)
			fmt.Print("export formats:      ")
			for i, info := range exportFormats() {
				if i > 0 {
					fmt.Print(", ")
				}
				fmt.Print(string(info.Name))
			}
			fmt.Println()
			return nil
		},
	}
}

func countPatternFiles(dir string) int {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0
	}
	return len(matches)
}

// exportFormats lists the registry in a stable order for display.
func exportFormats() []export.FormatInfo {
	order := []export.Format{export.FormatJSON, export.FormatTurtle, export.FormatNTriples, export.FormatJSONLD}
	infos := make([]export.FormatInfo, 0, len(order))
	for _, f := range order {
		if info, ok := export.GetFormatInfo(f); ok {
			infos = append(infos, info)
		}
	}
	return infos
}
