package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/morozRed/toolbelt/internal/config"
	"github.com/morozRed/toolbelt/internal/ignore"
	"github.com/morozRed/toolbelt/internal/linkcheck"
	"github.com/morozRed/toolbelt/internal/logger"
	"github.com/morozRed/toolbelt/internal/reader"
	"github.com/morozRed/toolbelt/internal/report"
	"github.com/morozRed/toolbelt/internal/scan"
	"github.com/morozRed/toolbelt/internal/tokens"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runScan resolves configuration, runs one report and writes it to the
// output directory. The report path is printed on stdout.
func runScan(cmd *cobra.Command, c scan.Command) error {
	// Command-local flags may shadow persistent ones (--max-bytes on
	// duplicate-file-contents-scan), so config reads the root's set.
	cfg, err := config.Load(viper.New(), cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if cfg.File != "" {
		log.Debugf("using config %s", cfg.File)
	}

	params, err := commandParams(cmd, c.Flags)
	if err != nil {
		return err
	}
	root := "."
	if !c.NoPath {
		path, err := OptionalStringFlag(cmd, "path")
		if err != nil {
			return err
		}
		if path != "" {
			root = path
		}
	}

	env, err := newEnv(cfg, c, root, log)
	if err != nil {
		return err
	}
	env.Params = params

	level := logger.NormalizeLevel(cfg.LogLevel)
	progress := newScanProgress(c.Name, level == "debug" || level == "trace")
	env.Progress = progress.Update

	log.Debugf("run %s: %s on %s", env.RunID, c.Name, root)
	body, err := c.Run(cmd.Context(), env)
	progress.Done()
	if err != nil {
		return fmt.Errorf("%s failed: %w", c.Name, err)
	}

	path, err := report.NewSink(cfg.OutputDir).Write(c.Kind(params), body, "md")
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Debugf("run %s: read %d files", env.RunID, progress.Count())
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// newEnv wires the shared collaborators for one run.
func newEnv(cfg config.Config, c scan.Command, root string, log logger.Logger) (*scan.Env, error) {
	env := scan.NewEnv(root)
	env.Log = log
	env.MaxBytes = cfg.MaxBytes
	env.Workers = cfg.Workers
	env.RunID = uuid.NewString()

	if !c.NoPath {
		rules, err := ignore.LoadRules(root)
		if err != nil {
			return nil, err
		}
		rules = append(rules, cfg.Exclude...)
		matcher := ignore.NewMatcher(rules)
		if cfg.RespectGitignore {
			if err := matcher.UseGitIgnore(root); err != nil {
				log.Warnf("gitignore: %v", err)
			}
		}
		if !matcher.Empty() {
			env.Ignore = matcher
		}
	}

	cached, err := reader.NewCachedReader(reader.FileReader{}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader cache: %w", err)
	}
	env.Reader = cached

	links := linkcheck.New(cfg.LinkTimeout)
	links.Workers = cfg.Workers
	links.UserAgent = "toolbelt"
	env.Links = links

	// tiktoken loads its encoding on construction; only pay for that when
	// the report counts tokens.
	if c.Name == "token-estimate" {
		counter, err := tokens.New(cfg.Tokenizer, cfg.TokenizerModel)
		if err != nil {
			return nil, err
		}
		env.Tokens = counter
	}
	return env, nil
}
