package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lirany1/bench-report/pkg/cleanup"
	"github.com/lirany1/bench-report/pkg/config"
	"github.com/lirany1/bench-report/pkg/generator"
	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/server"
	"github.com/lirany1/bench-report/pkg/storage"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "bench-report",
		Short: "HTML reports and trends for benchmark task results",
		Long: `bench-report turns benchmark task results into HTML reports.

It keeps a history of imported tasks, renders per-task reports and
cross-run trends, exports report data as JSON or YAML and cleans up the
resources a task left behind.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "Path to the task history database")
	rootCmd.PersistentFlags().String("env-file", "", "Load environment variables from a dotenv file")

	var reportCmd = &cobra.Command{
		Use:   "report [task-uuid|file]...",
		Short: "Generate the HTML report of one or more tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runReport,
	}
	reportCmd.Flags().StringP("output", "o", "", "Output directory (default: <reports_dir>)")
	reportCmd.Flags().Bool("include-libs", false, "Inline JavaScript libraries into the report")
	reportCmd.Flags().StringSliceP("formats", "f", nil, "Export formats (html, json, yaml)")

	var trendsCmd = &cobra.Command{
		Use:   "trends [task-uuid|file]...",
		Short: "Generate the trends report across task runs",
		Long:  "Generate the trends report across task runs. Without arguments the most recent tasks in the history are used.",
		RunE:  runTrends,
	}
	trendsCmd.Flags().StringP("output", "o", "", "Output directory (default: <reports_dir>)")

	var exportCmd = &cobra.Command{
		Use:   "export [task-uuid|file]...",
		Short: "Export report data as JSON or YAML",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringP("format", "f", "json", "Export format (json, yaml)")
	exportCmd.Flags().StringP("output", "o", "", "Output directory (default: <reports_dir>)")

	var importCmd = &cobra.Command{
		Use:   "import [file]...",
		Short: "Import task result files into the history",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List tasks in the history",
		RunE:  runList,
	}
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of tasks (default: history_limit)")

	var deleteCmd = &cobra.Command{
		Use:   "delete [task-uuid]...",
		Short: "Delete tasks from the history",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDelete,
	}

	var serverCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start live report server",
		Long:  "Start a local server to browse the task history and render reports on demand.",
		RunE:  runServer,
	}
	serverCmd.Flags().IntP("port", "p", 0, "Port to run server on")
	serverCmd.Flags().StringP("host", "H", "", "Host to bind server to")
	serverCmd.Flags().StringP("dir", "d", "", "Directory of generated reports to serve")

	var cleanupCmd = &cobra.Command{
		Use:   "cleanup [task-uuid]",
		Short: "Delete admin-owned resources a task left behind",
		Args:  cobra.ExactArgs(1),
		RunE:  runCleanup,
	}
	cleanupCmd.Flags().StringSliceP("resources", "r", nil, "Resource types to clean (default: all admin resources)")
	cleanupCmd.Flags().String("admin-user", "", "Admin user name")
	cleanupCmd.Flags().String("auth-url", "", "Identity endpoint of the cloud")
	cleanupCmd.Flags().Bool("list-resources", false, "List the resource types cleanup knows")

	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	var configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(reportCmd, trendsCmd, exportCmd, importCmd, listCmd, deleteCmd, serverCmd, cleanupCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// loadConfig reads the config file or searches the default locations, then
// applies the global flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	var cfg *config.Config
	if configFile != "" {
		cfg = config.NewConfig()
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.LoadFromEnv(); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	} else {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DatabasePath = db
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// setup opens the history and builds a generator over it
func setup(cmd *cobra.Command) (*config.Config, *storage.Database, *generator.Generator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := storage.NewDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := generator.NewGenerator(cfg, version, db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return cfg, db, gen, nil
}

func outputDir(cmd *cobra.Command, cfg *config.Config) string {
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return out
	}
	return cfg.ReportsDir
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, db, gen, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Flags().Changed("include-libs") {
		cfg.IncludeLibs, _ = cmd.Flags().GetBool("include-libs")
	}
	if formats, _ := cmd.Flags().GetStringSlice("formats"); len(formats) > 0 {
		cfg.ExportFormats = formats
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	tasks, err := gen.ResolveTasks(args)
	if err != nil {
		return err
	}
	_, err = gen.GenerateReport(tasks, outputDir(cmd, cfg))
	return err
}

func runTrends(cmd *cobra.Command, args []string) error {
	cfg, db, gen, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	refs := args
	if len(refs) == 0 {
		records, err := db.ListTasks(cfg.HistoryLimit)
		if err != nil {
			return err
		}
		for i := len(records) - 1; i >= 0; i-- {
			refs = append(refs, records[i].UUID)
		}
	}

	tasks, err := gen.ResolveTasks(refs)
	if err != nil {
		return err
	}
	_, err = gen.GenerateTrends(tasks, outputDir(cmd, cfg))
	return err
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, db, gen, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	format, _ := cmd.Flags().GetString("format")
	tasks, err := gen.ResolveTasks(args)
	if err != nil {
		return err
	}
	_, err = gen.Export(tasks, outputDir(cmd, cfg), format)
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	_, db, gen, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	tasks, err := gen.Import(args)
	if err != nil {
		return err
	}
	logger.Infof("✓ Imported %d tasks", len(tasks))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, db, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	if limit == 0 {
		limit = cfg.HistoryLimit
	}
	records, err := db.ListTasks(limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tCREATED\tWORKLOADS\tTITLE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.UUID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.WorkloadCount, r.Title)
	}
	return w.Flush()
}

func runDelete(cmd *cobra.Command, args []string) error {
	_, db, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, uuid := range args {
		if err := db.DeleteTask(uuid); err != nil {
			return err
		}
		logger.Infof("Deleted task %s", uuid)
	}
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, db, gen, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.ServerPort = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.ServerHost = host
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.ReportsDir = dir
	}

	logger.Infof("Starting report server on %s:%d", cfg.ServerHost, cfg.ServerPort)
	logger.Infof("Serving reports from: %s", cfg.ReportsDir)

	srv := server.NewServer(&server.Config{
		Host:         cfg.ServerHost,
		Port:         cfg.ServerPort,
		ReportsDir:   cfg.ReportsDir,
		HistoryLimit: cfg.HistoryLimit,
	}, db, gen.Formatter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	registry := cleanup.DefaultRegistry()

	if list, _ := cmd.Flags().GetBool("list-resources"); list {
		for _, name := range registry.Names(true) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	_, db, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	taskID := args[0]
	if _, err := db.GetTask(taskID); err != nil {
		return err
	}

	names, _ := cmd.Flags().GetStringSlice("resources")
	if len(names) == 0 {
		names = registry.Names(true)
	}

	task := &cleanup.TaskContext{TaskID: taskID, Users: []cleanup.User{}}
	if user, _ := cmd.Flags().GetString("admin-user"); user != "" {
		authURL, _ := cmd.Flags().GetString("auth-url")
		task.Admin = &cleanup.Credential{AuthURL: authURL, Username: user}
	}

	manager := cleanup.NewLedgerManager(db, cleanup.LogDeleter{}, registry)
	adminCleanup, err := cleanup.NewAdminCleanup(names, task, registry, manager)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := adminCleanup.Setup(ctx); err != nil {
		return err
	}
	return adminCleanup.Cleanup(ctx)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "bench-report.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	logger.Infof("✓ Configuration written to %s", path)
	return nil
}
