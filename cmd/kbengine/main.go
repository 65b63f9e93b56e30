package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/mobiuskb/kbengine"
	"github.com/mobiuskb/kbengine/knowledge"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	envFile    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "kbengine",
	Short: "kbengine - a Markdown knowledge base served with Go, Echo and templ",
	Long: `kbengine loads a JSON corpus of articles grouped by category, serves
filterable listing pages, rendered article pages and a JSON API, and can
write the whole site out as static HTML.

Settings come from the YAML file given by --config, overridden by KB_*
environment variables. A .env file is loaded first when present.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a JSON corpus file into the SQLite store",
	Long: `Import replaces the contents of the SQLite store with the articles,
navigation and metadata of FILE. Serve with corpus_driver: sqlite to read
from the store afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the corpus for integrity problems",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the site as static HTML",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

var newCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create a new kbengine project",
	Example: `  kbengine new taxkb
  kbengine new github.com/user/taxkb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNew(args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kbengine version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kbengine %s\n", version)
	},
}

var (
	buildOut   string
	buildForce bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "kbengine.yaml", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error, off)")

	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "dist", "Output directory")
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Overwrite existing article pages")

	rootCmd.AddCommand(serveCmd, importCmd, verifyCmd, buildCmd, newCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the dotenv file, the YAML config and the environment,
// in that order of increasing precedence.
func loadConfig(cmd *cobra.Command) (kbengine.SiteConfig, error) {
	if err := godotenv.Load(envFile); err != nil {
		if cmd.Flags().Changed("env") || !errors.Is(err, os.ErrNotExist) {
			return kbengine.SiteConfig{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg, err := kbengine.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*kbengine.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := log.New("kbengine")
	logger.SetLevel(cfg.Level())
	return kbengine.New(cfg, kbengine.WithLogger(logger)), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Start(ctx)
}

func runImport(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	doc, err := knowledge.FileSource{Path: args[0]}.Open(ctx)
	if err != nil {
		return err
	}
	if issues := knowledge.Verify(doc); len(issues) > 0 {
		app.Logger.Warnf("%s has %d integrity issues; run verify for details", args[0], len(issues))
	}

	store, err := kbengine.NewStore(app.Config.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	n, err := store.SaveDocument(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d articles into %s\n", n, app.Config.DatabasePath)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Open(cmd.Context()); err != nil {
		return err
	}
	if _, err := app.Library.Status(); err != nil {
		return err
	}
	doc := app.Library.Corpus().Document()
	issues := knowledge.Verify(&doc)
	for _, issue := range issues {
		fmt.Println(issue)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d integrity issues in %s", len(issues), app.Library.Source())
	}
	fmt.Printf("%s: %d articles, no issues\n", app.Library.Source(), app.Library.Corpus().Len())
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.BuildStatic(cmd.Context(), buildOut, buildForce)
	if err != nil {
		return err
	}
	for _, id := range report.Invalid {
		fmt.Fprintf(os.Stderr, "  skipped %q: not usable as a file name\n", id)
	}
	fmt.Printf("wrote %d pages to %s (%d kept, %d invalid)\n",
		len(report.Written), buildOut, len(report.Skipped), len(report.Invalid))
	return nil
}
