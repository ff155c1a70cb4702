package cli

import (
	"fmt"
	"io"

	"github.com/morozRed/toolbelt/internal/config"
	"github.com/morozRed/toolbelt/internal/scan"
	"github.com/spf13/cobra"
)

// groupTitles orders and names the command groups in help output.
var groupTitles = []struct {
	id    string
	title string
}{
	{"patterns", "Pattern Scanners:"},
	{"style", "Style Scanners:"},
	{"inventory", "Inventories:"},
	{"convert", "Converters:"},
	{"syntax", "Syntax Checks:"},
	{"markdown", "Markdown Reports:"},
	{"python", "Python Metrics:"},
	{"packs", "Packs:"},
}

func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, scan.Default())
}

func newRootCommand(version string, registry *scan.Registry) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolbelt",
		Short: "Generate Markdown context reports about a project tree",
		Long: `Toolbelt walks a project directory and writes Markdown reports:
pattern scanners, style checks, inventories, format converters and
Python metrics, ready to paste into an LLM prompt.

Reports are written to context_out/ as <command>_<timestamp>.md.`,
		SilenceUsage: true,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	for _, g := range groupTitles {
		rootCmd.AddGroup(&cobra.Group{ID: g.id, Title: g.title})
	}
	for _, c := range registry.Commands() {
		rootCmd.AddCommand(newScanCommand(c))
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .toolbelt.yaml and .toolbeltignore",
		Args:  cobra.NoArgs,
		RunE:  RunInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite existing files")
	initCmd.Flags().String("llm", "", "Also write agent integration files: codex,claude,cursor,all")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List report commands by group",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printCommandList(cmd.OutOrStdout(), registry)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "toolbelt %s\n", version)
		},
	}

	rootCmd.AddCommand(initCmd, listCmd, versionCmd)
	return rootCmd
}

// newScanCommand exposes one registered report as a subcommand.
func newScanCommand(c scan.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:     c.Name,
		Short:   c.Short,
		GroupID: c.Group,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, c)
		},
	}
	if !c.NoPath {
		cmd.Flags().String("path", ".", "Path to scan")
	}
	addCommandFlags(cmd, c.Flags)
	return cmd
}

// printCommandList writes every registered command under its group title,
// groups in help order and commands sorted by name.
func printCommandList(w io.Writer, registry *scan.Registry) {
	for i, g := range groupTitles {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, g.title)
		for _, name := range registry.Names() {
			c, _ := registry.Lookup(name)
			if c.Group == g.id {
				fmt.Fprintf(w, "  %-32s %s\n", name, c.Short)
			}
		}
	}
}
