// Package cli implements the loraview command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Karonar1/lora-viewer/internal/classify"
	"github.com/Karonar1/lora-viewer/internal/config"
	"github.com/Karonar1/lora-viewer/internal/logging"
	"github.com/Karonar1/lora-viewer/internal/metadata"
)

// app is the state shared by all commands once flags are parsed.
type app struct {
	configPath string
	rulesPath  string
	verbose    bool

	cfg     config.Config
	builder *metadata.Builder
	rules   classify.RuleSet
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "loraview",
		Short: "Inspect LoRA and checkpoint safetensors files",
		Long: `loraview reads the header of safetensors files produced by fine-tuning tools and
shows their training metadata, the aggregated training tag frequencies and a best-effort
guess of the model architecture and adapter type.

Only the header is read; tensor weights are never loaded.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Path to the configuration file")
	root.PersistentFlags().StringVar(&a.rulesPath, "rules", "", "YAML classification rule table (overrides rules_file)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newInspectCommand(a),
		newScanCommand(a),
		newRulesCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	if err := logging.Init(&logging.Config{Level: level, Output: cmd.ErrOrStderr()}); err != nil {
		return err
	}

	a.rules = classify.DefaultRules()
	rulesPath := a.rulesPath
	if rulesPath == "" {
		rulesPath = cfg.RulesFile
	}
	if rulesPath != "" {
		if a.rules, err = classify.LoadRules(rulesPath); err != nil {
			return err
		}
		log.Debug("loaded classification rules", "path", rulesPath)
	}
	a.builder = metadata.NewBuilder(classify.New(a.rules))
	return nil
}

// rememberPath stores path as the last opened file or directory.
func (a *app) rememberPath(path string) {
	if a.cfg.LastPath == path {
		return
	}
	a.cfg.LastPath = path
	if err := config.Save(a.configPath, a.cfg); err != nil {
		log.Warn("could not save configuration", "path", a.configPath, "error", err)
	}
}

// lastDir returns the remembered directory, or the directory holding the remembered file.
func (a *app) lastDir() string {
	path := a.cfg.LastPath
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

// lastFile returns the remembered path unless it is a directory.
func (a *app) lastFile() string {
	path := a.cfg.LastPath
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return ""
	}
	return path
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
