package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/morozRed/toolbelt/internal/scan"
	"github.com/spf13/cobra"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

// addCommandFlags registers the flags a report declares.
func addCommandFlags(cmd *cobra.Command, flags []scan.Flag) {
	for _, f := range flags {
		switch f.Kind {
		case scan.FlagInt:
			def, _ := f.Default.(int)
			cmd.Flags().Int(f.Name, def, f.Usage)
		case scan.FlagBool:
			def, _ := f.Default.(bool)
			cmd.Flags().Bool(f.Name, def, f.Usage)
		case scan.FlagString:
			def, _ := f.Default.(string)
			usage := f.Usage
			if len(f.Choices) > 0 {
				usage = fmt.Sprintf("%s: %s", usage, strings.Join(f.Choices, "|"))
			}
			cmd.Flags().String(f.Name, def, usage)
		}
		if f.Required {
			_ = cmd.MarkFlagRequired(f.Name)
		}
	}
}

// commandParams reads the declared flags back into scan.Params.
func commandParams(cmd *cobra.Command, flags []scan.Flag) (scan.Params, error) {
	params := make(scan.Params, len(flags))
	for _, f := range flags {
		switch f.Kind {
		case scan.FlagInt:
			v, err := cmd.Flags().GetInt(f.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to read --%s flag: %w", f.Name, err)
			}
			params[f.Name] = v
		case scan.FlagBool:
			v, err := cmd.Flags().GetBool(f.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to read --%s flag: %w", f.Name, err)
			}
			params[f.Name] = v
		case scan.FlagString:
			v, err := OptionalStringFlag(cmd, f.Name)
			if err != nil {
				return nil, err
			}
			if len(f.Choices) > 0 && !slices.Contains(f.Choices, v) {
				return nil, fmt.Errorf("unsupported --%s %q (supported: %s)", f.Name, v, strings.Join(f.Choices, ", "))
			}
			params[f.Name] = v
		}
	}
	return params, nil
}
