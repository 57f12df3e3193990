// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillkit/skillkit/internal/cueutil"
	"github.com/skillkit/skillkit/internal/issue"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"
	"github.com/skillkit/skillkit/pkg/scan"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "skillkit"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. SKILLKIT_STRICT.
	EnvPrefix = "SKILLKIT"
)

// ErrConfigExists is returned by WriteDefault when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the skillkit user configuration directory.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// loadWithOptions performs option-driven config loading.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path, logger); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'skillkit config init' to write a commented default file").
				Wrap(&finding.ConfigurationError{Reason: finding.ReasonBadOption, Err: err}).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &finding.ConfigurationError{Reason: finding.ReasonBadOption, Path: path, Detail: "failed to parse config", Err: err}
	}
	cfg.Source = path
	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("entries", defaults.Entries)
	v.SetDefault("strict", defaults.Strict)
	v.SetDefault("orphan_allow", defaults.OrphanAllow)
	v.SetDefault("ignore", defaults.Ignore)
	for tier, b := range defaults.Budget {
		v.SetDefault("budget."+tier+".hard_limit", b.HardLimit)
		v.SetDefault("budget."+tier+".warn_threshold", b.WarnThreshold)
	}
	v.SetDefault("tiers", defaults.Tiers)
	v.SetDefault("limits.max_files", defaults.Limits.MaxFiles)
	v.SetDefault("limits.max_bytes", defaults.Limits.MaxBytes)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("output.format", string(defaults.Output.Format))
	v.SetDefault("log_level", defaults.LogLevel)
}

// resolvePath picks the configuration file: the explicit path, else the
// package's own file, else the user config file. Empty means defaults only.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'skillkit config show' to see the effective configuration").
				Wrap(finding.Configf(finding.ReasonBadOption, "", "config file not found")).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if opts.RootDir != "" {
		local := filepath.Join(opts.RootDir, scan.ConfigFileName)
		if fileExists(local) {
			return local, nil
		}
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			// No user config directory means no user config file.
			return "", nil
		}
		cfgDir = dir
	}
	user := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(user) {
		return user, nil
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, rewrites deprecated keys, validates
// the result against #Config and merges it into Viper.
//
// The file is decoded to a map rather than a struct so Viper keeps layering
// defaults and environment overrides on top of it.
func loadCUEIntoViper(v *viper.Viper, path string, logger *log.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	raw, err := cueutil.DecodeData(data, cueutil.WithFilename(path))
	if err != nil {
		return err
	}
	if rewrites := RewriteAliases(raw); len(rewrites) > 0 {
		for _, r := range rewrites {
			logger.Warn("deprecated config key", "file", path, "key", r.From, "use", r.To, "ignored", r.Shadowed)
		}
		if data, err = cueutil.Marshal(raw); err != nil {
			return err
		}
	}

	result, err := cueutil.ParseAndDecode[map[string]any](
		configSchema,
		data,
		"#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes a commented default configuration to dir/.skillkit.cue
// and returns its path. An existing file is never overwritten.
func WriteDefault(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, scan.ConfigFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	if _, err := io.WriteString(f, GenerateCUE(DefaultConfig())); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// skillkit configuration\n")
	sb.WriteString("// Remove a field to fall back to its built-in default.\n\n")

	sb.WriteString("// Entry documents reachability starts from.\n")
	fmt.Fprintf(&sb, "entries: %s\n", cueList(cfg.Entries))
	sb.WriteString("\n// Fail on warnings and info issues too.\n")
	fmt.Fprintf(&sb, "strict: %v\n", cfg.Strict)
	sb.WriteString("\n// Globs exempt from orphan findings.\n")
	fmt.Fprintf(&sb, "orphan_allow: %s\n", cueList(cfg.OrphanAllow))
	sb.WriteString("\n// Globs skipped by the scanner in addition to the built-in ignores.\n")
	fmt.Fprintf(&sb, "ignore: %s\n", cueList(cfg.Ignore))

	sb.WriteString("\n// Line budgets per tier. Warnings start at warn_threshold of the limit.\n")
	sb.WriteString("budget: {\n")
	for _, tier := range []refgraph.Tier{refgraph.TierP0, refgraph.TierP1, refgraph.TierP2} {
		if b, ok := lookupBudget(cfg.Budget, tier); ok {
			fmt.Fprintf(&sb, "\t%s: {hard_limit: %d, warn_threshold: %g}\n", tier, b.HardLimit, b.WarnThreshold)
		}
	}
	sb.WriteString("}\n")

	sb.WriteString("\n// Tier rules for files without a frontmatter tier. First match wins.\n")
	if len(cfg.Tiers) == 0 {
		sb.WriteString("tiers: []\n")
	} else {
		sb.WriteString("tiers: [\n")
		for _, r := range cfg.Tiers {
			fmt.Fprintf(&sb, "\t{pattern: %q, tier: %q},\n", r.Pattern, strings.ToUpper(string(r.Tier)))
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\nlimits: {\n")
	fmt.Fprintf(&sb, "\tmax_files: %d\n", cfg.Limits.MaxFiles)
	fmt.Fprintf(&sb, "\tmax_bytes: %d\n", cfg.Limits.MaxBytes)
	sb.WriteString("}\n")

	sb.WriteString("\n// Concurrent file loaders; 0 uses one per CPU.\n")
	fmt.Fprintf(&sb, "workers: %d\n", cfg.Workers)

	sb.WriteString("\noutput: {\n")
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.Output.Format)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nlog_level: %q\n", cfg.LogLevel)

	return sb.String()
}

// lookupBudget finds tier in m regardless of key case; Viper lower-cases keys.
func lookupBudget(m map[string]TierBudget, tier refgraph.Tier) (TierBudget, bool) {
	for k, b := range m {
		if strings.EqualFold(k, string(tier)) {
			return b, true
		}
	}
	return TierBudget{}, false
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
