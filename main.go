// resxsync — finds entries of the base .resx file that a translation lacks
// and extracts them for translators.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/resxsync/config"
	"github.com/minios-linux/resxsync/i18n"
	"github.com/minios-linux/resxsync/langmeta"
	"github.com/minios-linux/resxsync/lockfile"
	"github.com/minios-linux/resxsync/report"
	"github.com/minios-linux/resxsync/syncer"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// useColor is decided once from stdout; logs decide for stderr separately.
var useColor = isatty.IsTerminal(os.Stdout.Fd())

// stdout is where summaries and tables go.
var stdout io.Writer = os.Stdout

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func setupLogging(verbose bool) {
	w := zerolog.ConsoleWriter{
		Out:          os.Stderr,
		NoColor:      !isatty.IsTerminal(os.Stderr.Fd()),
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	log.Logger = zerolog.New(w)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func logInfo(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func logWarning(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

func logError(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

// exitCode ends the process with the given status without logging again;
// the failure has already been reported.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	flagDir      string
	flagPrefix   string
	flagBaseLang string
	flagConfig   string
	flagFormat   = formatValue(config.FormatText)
	flagStrict   bool
	flagAll      bool
	flagLock     bool
	flagJobs     int
	flagVerbose  bool
)

// formatValue is the --format flag: text or json.
type formatValue string

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string { return string(*f) }

func (f *formatValue) Set(s string) error {
	switch s {
	case config.FormatText, config.FormatJSON:
		*f = formatValue(s)
		return nil
	}
	return fmt.Errorf("must be one of: %s, %s", config.FormatText, config.FormatJSON)
}

func (f *formatValue) Type() string { return "format" }

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resxsync [lang]",
		Short: "Extract base .resx entries missing from a translation",
		Long: `resxsync compares the base resource file (Strings.en.resx) with a
translation (Strings.<lang>.resx) and writes every entry the translation
lacks to missing_<lang>.txt, ready to hand to translators.

The language defaults to "ja". Use --all to process every Strings.*.resx
found in the resource directory (or the languages listed in .resxsync.yaml).

Commands:
  check       Report missing entries without writing; fails if any are missing
  status      Per-language completeness table
  languages   Supported languages and which resource files exist
  lock        Record current base entries as translated (clears stale marks)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(flagVerbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args, false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagDir, "dir", ".", "Directory containing the .resx files")
	pf.StringVar(&flagPrefix, "prefix", config.DefaultPrefix, "Resource base name (<prefix>.<lang>.resx)")
	pf.StringVar(&flagBaseLang, "base-lang", config.DefaultBaseLanguage, "Base language code")
	pf.StringVar(&flagConfig, "config", "", "Config file (default <dir>/"+config.FileName+")")
	pf.Var(&flagFormat, "format", "Output format: text, json")
	pf.BoolVar(&flagStrict, "strict", false, "Fail when a missing key has no <data> block")
	pf.BoolVar(&flagAll, "all", false, "Process every target language")
	pf.BoolVar(&flagLock, "lock", false, "Track base changes in "+lockfile.LockFileName)
	pf.IntVarP(&flagJobs, "jobs", "j", 0, "Languages compared in parallel with --all")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newCheckCmd(),
		newStatusCmd(),
		newLanguagesCmd(),
		newLockCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}
	var code exitCode
	if errors.As(err, &code) {
		stop()
		os.Exit(int(code))
	}
	logError("%v", err)
	stop()
	os.Exit(1)
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// loadConfig layers .resxsync.yaml, RESXSYNC_* variables and explicitly set
// flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, required := flagConfig, flagConfig != ""
	if path == "" {
		path = filepath.Join(flagDir, config.FileName)
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = flagDir
	}
	if flags.Changed("prefix") {
		cfg.Prefix = flagPrefix
	}
	if flags.Changed("base-lang") {
		cfg.BaseLang = flagBaseLang
	}
	if flags.Changed("format") {
		cfg.Format = string(flagFormat)
	}
	if flags.Changed("strict") {
		cfg.Strict = flagStrict
	}
	if flags.Changed("lock") {
		cfg.Lock = flagLock
	}
	if flags.Changed("jobs") {
		cfg.Jobs = flagJobs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug().Str("config", path).Str("dir", cfg.Dir).Str("base", cfg.BaseLang).Msg("Configuration loaded")
	return cfg, nil
}

// selectLanguages returns the languages named on the command line, every
// target language with --all, or the default language.
func selectLanguages(cfg *config.Config, args []string) ([]string, error) {
	if flagAll {
		if len(args) > 0 {
			return nil, fmt.Errorf("--all cannot be combined with language arguments")
		}
		langs, err := cfg.TargetLanguages()
		if err != nil {
			return nil, err
		}
		if len(langs) == 0 {
			return nil, fmt.Errorf("no %s.<lang>%s files found in %s", cfg.Prefix, config.ResxExt, cfg.Dir)
		}
		return langs, nil
	}
	if len(args) == 0 {
		return []string{config.DefaultLanguage}, nil
	}
	for _, lang := range args {
		if !langmeta.Valid(lang) {
			return nil, fmt.Errorf("%q is not a valid language code", lang)
		}
	}
	return args, nil
}

func loadLock(cfg *config.Config) (*lockfile.LockFile, error) {
	if !cfg.Lock {
		return nil, nil
	}
	return lockfile.Load(cfg.Dir)
}

// ---------------------------------------------------------------------------
// sync (root) and check
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [lang...]",
		Short: "Report missing entries without writing; exit 1 if any",
		Long: `Compare like the root command but never write missing_<lang>.txt.
Exits with status 1 when any language has missing entries, which makes it
usable as a CI gate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args, true)
		},
	}
}

func runSync(cmd *cobra.Command, args []string, dryRun bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	langs, err := selectLanguages(cfg, args)
	if err != nil {
		return err
	}
	lf, err := loadLock(cfg)
	if err != nil {
		return err
	}

	paths := make([]config.Paths, 0, len(langs))
	for _, lang := range langs {
		paths = append(paths, cfg.Paths(lang))
	}

	opts := syncer.Options{
		Strict: cfg.Strict,
		DryRun: dryRun,
		Lock:   lf,
		Values: cfg.Format == config.FormatJSON,
	}
	results := syncer.RunAll(cmd.Context(), opts, paths, cfg.Jobs)

	if lf != nil {
		if err := lf.Save(); err != nil {
			logWarning("Could not save %s: %v", lf.Path(), err)
		} else {
			log.Debug().Str("lock", lf.Path()).Msg(lf.Summary())
		}
	}

	if err := render(cfg, results, len(args) > 1 || flagAll); err != nil {
		return err
	}

	failed, gaps := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			var nf *config.FileNotFoundError
			if !errors.As(res.Err, &nf) {
				logError("%s: %v", res.Paths.Lang, res.Err)
			}
		}
		if res.State == syncer.StateChecked {
			gaps++
		}
	}
	if failed > 0 {
		return exitCode(1)
	}
	if dryRun && gaps > 0 {
		return exitCode(1)
	}
	return nil
}

func render(cfg *config.Config, results []*syncer.Result, asList bool) error {
	summaries := make([]*report.Summary, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, res.Summary(cfg.BaseLang))
	}

	if cfg.Format == config.FormatJSON {
		return report.WriteJSON(stdout, summaries, asList)
	}
	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		s.WriteText(stdout)
	}
	return nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-language completeness",
		Long: `Compare every target language without writing anything and show how
many base entries each translation lacks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	langs, err := cfg.TargetLanguages()
	if err != nil {
		return err
	}
	lf, err := loadLock(cfg)
	if err != nil {
		return err
	}

	paths := make([]config.Paths, 0, len(langs))
	for _, lang := range langs {
		paths = append(paths, cfg.Paths(lang))
	}
	results := syncer.RunAll(cmd.Context(), syncer.Options{DryRun: true, Lock: lf}, paths, cfg.Jobs)

	if cfg.Format == config.FormatJSON {
		summaries := make([]*report.Summary, 0, len(results))
		for _, res := range results {
			summaries = append(summaries, res.Summary(cfg.BaseLang))
		}
		return report.WriteJSON(stdout, summaries, true)
	}

	showStatusTable(cfg, results)
	return nil
}

func showStatusTable(cfg *config.Config, results []*syncer.Result) {
	base := config.ResourceName(cfg.Prefix, cfg.BaseLang)
	baseKeys := 0
	for _, res := range results {
		if res.BaseKeys > 0 {
			baseKeys = res.BaseKeys
			break
		}
	}

	fmt.Fprintf(stdout, "\n%s%s%s\n", colorize(colorBlue), i18n.T("Base: %s (%d keys)", base, baseKeys), colorize(colorReset))
	fmt.Fprintln(stdout, strings.Repeat("─", 72))
	fmt.Fprintf(stdout, "%-8s %-20s %-8s %-8s %-8s %s\n",
		i18n.T("Language"), i18n.T("Name"), i18n.T("Keys"), i18n.T("Missing"), i18n.T("Stale"), i18n.T("Translated"))
	fmt.Fprintln(stdout, strings.Repeat("─", 72))

	for _, res := range results {
		lang := res.Paths.Lang
		name := langmeta.Resolve(lang).Name
		if res.Err != nil {
			fmt.Fprintf(stdout, "%-8s %-20s %-8s %-8s %-8s %s\n", lang, name, "-", "-", "-", "error")
			continue
		}
		percent := 100
		if res.BaseKeys > 0 {
			percent = (res.BaseKeys - len(res.Missing)) * 100 / res.BaseKeys
		}
		fmt.Fprintf(stdout, "%-8s %-20s %-8d %-8d %-8d %s\n",
			lang, name, res.BaseKeys, len(res.Missing), len(res.Stale), progressBar(percent, 20))
	}
	fmt.Fprintln(stdout)
}

func colorize(code string) string {
	if !useColor {
		return ""
	}
	return code
}

// progressBar renders a fixed-width bar followed by the percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", colorize(color), bar, colorize(colorReset), percent)
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and existing resource files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			detected, err := config.DetectLanguages(cfg.Dir, cfg.Prefix, cfg.BaseLang)
			if err != nil {
				logWarning("%v", err)
			}
			for _, line := range languageLines(cfg.BaseLang, detected) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
}

// languageLines lists the supported languages (base and present files
// marked) followed by detected languages outside the registry.
func languageLines(baseLang string, detected []string) []string {
	present := make(map[string]bool, len(detected))
	for _, l := range detected {
		present[l] = true
	}

	var lines []string
	for _, m := range langmeta.Supported {
		mark := " "
		switch {
		case m.Code == baseLang:
			mark = "*"
		case present[m.Code]:
			mark = "+"
		}
		lines = append(lines, fmt.Sprintf(" %s %-6s %-18s %s", mark, m.Code, m.Name, m.English))
	}
	for _, l := range detected {
		if langmeta.IsSupported(l) {
			continue
		}
		m := langmeta.Resolve(l)
		lines = append(lines, fmt.Sprintf(" + %-6s %-18s %s", l, m.Name, m.English))
	}
	return lines
}

// ---------------------------------------------------------------------------
// lock
// ---------------------------------------------------------------------------

func newLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock [lang...]",
		Short: "Record current base entries as translated",
		Long: `Store checksums of the base entries every given translation already
contains in ` + lockfile.LockFileName + `. Later runs with --lock report base
entries edited since then as stale. Run it after translators have updated
the stale entries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			langs, err := selectLanguages(cfg, args)
			if err != nil {
				return err
			}
			lf, err := lockfile.Load(cfg.Dir)
			if err != nil {
				return err
			}
			for _, lang := range langs {
				n, err := syncer.Accept(cfg.Paths(lang), lf)
				if err != nil {
					return fmt.Errorf("%s: %w", lang, err)
				}
				logInfo("%s: recorded %d entries", lang, n)
			}
			if err := lf.Save(); err != nil {
				return err
			}
			logInfo("%s: %s", lf.Path(), lf.Summary())
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "resxsync version %s\n", version)
			fmt.Fprintf(stdout, "  commit:    %s\n", commit)
			fmt.Fprintf(stdout, "  built:     %s\n", date)
		},
	}
}
