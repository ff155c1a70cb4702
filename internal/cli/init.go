package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/morozRed/toolbelt/internal/config"
	"github.com/morozRed/toolbelt/internal/fileutil"
	"github.com/morozRed/toolbelt/internal/ignore"
	"github.com/morozRed/toolbelt/internal/llm"
	"github.com/spf13/cobra"
)

const starterConfig = `# toolbelt settings; TOOLBELT_* env vars and flags override these.
output_dir: context_out
max_bytes: 2000000
log_level: info
link_timeout: 5s
respect_gitignore: false
exclude: []
tokenizer: heuristic
`

const starterIgnore = `# Paths toolbelt should skip, gitignore syntax.
# Dot-directories, node_modules, venvs and build output are always skipped.
context_out/
*.min.js
`

// RunInit writes a starter config and ignore file into the working
// directory, plus agent integration files when --llm is given.
func RunInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to read --force flag: %w", err)
	}
	llmRaw, err := OptionalStringFlag(cmd, "llm")
	if err != nil {
		return err
	}
	providers, err := llm.ParseProviders(llmRaw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	files := []struct {
		name string
		body string
	}{
		{config.ConfigName + ".yaml", starterConfig},
		{ignore.RulesFile, starterIgnore},
	}
	for _, f := range files {
		path := filepath.Join(root, f.name)
		wrote, err := writeStarter(path, f.body, force)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Fprintf(out, "Wrote %s\n", f.name)
		} else {
			fmt.Fprintf(out, "Kept existing %s (use --force to overwrite)\n", f.name)
		}
	}

	if len(providers) > 0 {
		updated, err := llm.WriteIntegrations(root, providers)
		if err != nil {
			return err
		}
		if len(updated) > 0 {
			fmt.Fprintf(out, "Updated LLM integration files: %s\n", strings.Join(updated, ", "))
		}
	}
	return nil
}

func writeStarter(path, body string, force bool) (bool, error) {
	if !force {
		wrote, err := fileutil.WriteIfMissing(path, []byte(body), 0644)
		if err != nil {
			return false, fmt.Errorf("failed to write %s: %w", path, err)
		}
		return wrote, nil
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
