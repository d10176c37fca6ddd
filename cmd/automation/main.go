package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/deepnoodle-ai/automation"
	"github.com/deepnoodle-ai/automation/actions"
	"github.com/deepnoodle-ai/automation/api"
	"github.com/deepnoodle-ai/automation/postgres"
	"github.com/deepnoodle-ai/automation/redissink"
	"github.com/deepnoodle-ai/automation/script"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// CLI configuration
type Config struct {
	GraphFile   string
	RecordFile  string
	Fields      map[string]any
	LogsDir     string
	StoreDir    string
	Timeout     time.Duration
	MaxWait     time.Duration
	Strict      bool
	Sequential  bool
	ExprEngine  string
	Verbose     bool
	JSON        bool
	ServeAddr   string
	RedisAddr   string
	PostgresDSN string
}

func main() {
	config := parseFlags()
	logger := setupLogger(config.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := automation.NotificationFanout{}
	if config.ServeAddr == "" {
		sinks = append(sinks, &terminalSink{})
	} else {
		sinks = append(sinks, automation.NewLoggerNotificationSink(logger))
	}

	if config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer client.Close()
		sink, err := redissink.New(redissink.Options{Client: client, Logger: logger})
		if err != nil {
			log.Fatalf("Failed to create redis sink: %v", err)
		}
		sinks = append(sinks, sink)
		color.Blue("Publishing notifications to redis %s (%s)", config.RedisAddr, sink.Channel())
	}

	store, closeStore, err := openStore(ctx, config)
	if err != nil {
		log.Fatalf("Failed to open execution store: %v", err)
	}
	defer closeStore()

	var entryLogger automation.EntryLogger
	if config.LogsDir != "" {
		entryLogger = automation.NewFileEntryLogger(config.LogsDir)
		color.Blue("Entry logs: %s", config.LogsDir)
	}

	var compiler script.Compiler
	switch config.ExprEngine {
	case "risor", "":
	case "expr":
		compiler = script.NewExprCompiler()
	default:
		log.Fatalf("Unknown expression engine %q", config.ExprEngine)
	}

	engine, err := automation.NewEngine(automation.EngineOptions{
		Actions:     actions.Builtins(actions.Options{}),
		Notifier:    sinks,
		Logger:      logger,
		Store:       store,
		EntryLogger: entryLogger,
		MaxWait:     config.MaxWait,
		Strict:      config.Strict,
		Sequential:  config.Sequential,
		Compiler:    compiler,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	if config.ServeAddr != "" {
		serve(ctx, config, engine, logger)
		return
	}

	if config.GraphFile == "" {
		color.Red("Error: graph file is required")
		flag.Usage()
		os.Exit(1)
	}
	graph := loadGraph(config.GraphFile)

	record, err := loadRecord(config)
	if err != nil {
		log.Fatalf("Failed to load record: %v", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
		color.Yellow("Timeout: %v", config.Timeout)
	}

	startTime := time.Now()
	execution, err := engine.Execute(ctx, graph, record, "")
	showExecutionResults(execution, err, time.Since(startTime), config)
}

func parseFlags() *Config {
	config := &Config{Fields: map[string]any{}}

	flag.StringVar(&config.GraphFile, "file", "", "Path to the YAML or JSON workflow graph")
	flag.StringVar(&config.GraphFile, "f", "", "Path to the workflow graph (shorthand)")

	flag.StringVar(&config.RecordFile, "record", "", "Path to a JSON file holding the contact record")
	flag.StringVar(&config.RecordFile, "r", "", "Path to the record file (shorthand)")

	var fieldFlags stringSlice
	flag.Var(&fieldFlags, "set", "Record field in format key=value (can be used multiple times)")
	flag.Var(&fieldFlags, "s", "Record field in format key=value (shorthand)")

	flag.StringVar(&config.LogsDir, "logs", "", "Directory to stream log entries to (optional)")
	flag.StringVar(&config.LogsDir, "l", "", "Directory to stream log entries to (shorthand)")
	flag.StringVar(&config.StoreDir, "store", "", "Directory to store execution records (optional)")

	flag.DurationVar(&config.Timeout, "timeout", 0, "Execution timeout (e.g., 30s, 5m)")
	flag.DurationVar(&config.Timeout, "t", 0, "Execution timeout (shorthand)")
	flag.DurationVar(&config.MaxWait, "max-wait", 0, "Cap on how long wait nodes actually suspend (0 = no cap)")

	flag.BoolVar(&config.Strict, "strict", false, "Fail on unknown action types and condition operators")
	flag.BoolVar(&config.Sequential, "sequential", false, "Visit branches one at a time instead of concurrently")
	flag.StringVar(&config.ExprEngine, "expr-engine", "risor", "Language of expression conditions: risor or expr")

	flag.BoolVar(&config.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&config.Verbose, "v", false, "Enable verbose logging (shorthand)")
	flag.BoolVar(&config.JSON, "json", false, "Output the execution record as JSON")

	flag.StringVar(&config.ServeAddr, "serve", getEnv("AUTOMATION_LISTEN_ADDR", ""), "Serve the HTTP API on this address instead of running once")
	flag.StringVar(&config.RedisAddr, "redis", getEnv("AUTOMATION_REDIS_ADDR", ""), "Publish notifications to this redis address")
	flag.StringVar(&config.PostgresDSN, "postgres", getEnv("AUTOMATION_POSTGRES_DSN", ""), "Store execution records in this postgres database")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Automation CLI - Run CRM workflow graphs against contact records

Usage: %s [options] -file <workflow.yaml>

Examples:
  # Run a workflow against a record file
  %s -file welcome.yaml -record contact.json

  # Run with inline fields, capping waits at one second
  %s -file welcome.yaml -set status=lead -set email=ana@example.com -max-wait 1s

  # Serve the HTTP API with the graph preloaded
  %s -serve :8080 -file welcome.yaml -postgres postgres://localhost/automation

Options:
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
		flag.PrintDefaults()

		fmt.Fprintf(os.Stderr, `
Record Fields:
  Use -set key=value for each field. Values are parsed as JSON if possible,
  otherwise as strings. Fields override those read from -record.

`)
	}

	flag.Parse()

	for _, field := range fieldFlags {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 {
			fmt.Fprintf(os.Stderr, "Error: invalid field format '%s'. Use key=value\n", field)
			os.Exit(1)
		}
		key, value := parts[0], parts[1]

		var parsedValue any
		if err := json.Unmarshal([]byte(value), &parsedValue); err != nil {
			parsedValue = value
		}
		config.Fields[key] = parsedValue
	}
	return config
}

// Custom flag type for handling multiple values
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return automation.NewLoggerWithLevel(os.Stderr, level)
}

func openStore(ctx context.Context, config *Config) (automation.ExecutionStore, func(), error) {
	switch {
	case config.PostgresDSN != "":
		store, err := postgres.New(ctx, postgres.Options{DSN: config.PostgresDSN})
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		color.Blue("Execution records: postgres")
		return store, func() { store.Close() }, nil
	case config.StoreDir != "":
		store, err := automation.NewFileExecutionStore(config.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		color.Blue("Execution records: %s", config.StoreDir)
		return store, func() {}, nil
	case config.ServeAddr != "":
		return automation.NewMemoryExecutionStore(), func() {}, nil
	default:
		return automation.NewNullExecutionStore(), func() {}, nil
	}
}

func loadGraph(path string) *automation.Graph {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		color.Red("Error: graph file '%s' not found", path)
		os.Exit(1)
	}
	color.Blue("Loading workflow from: %s", path)
	graph, err := automation.LoadFile(path)
	if err != nil {
		log.Fatalf("Failed to load workflow: %v", err)
	}
	color.Cyan("Workflow: %s", graph.Name())
	if graph.Description() != "" {
		color.White("Description: %s", graph.Description())
	}
	return graph
}

func loadRecord(config *Config) (automation.Record, error) {
	record := automation.Record{}
	if config.RecordFile != "" {
		data, err := os.ReadFile(config.RecordFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("invalid record file: %w", err)
		}
	}
	for key, value := range config.Fields {
		record[key] = value
	}
	return record, nil
}

func serve(ctx context.Context, config *Config, engine *automation.Engine, logger *slog.Logger) {
	catalog := api.NewCatalog()
	if config.GraphFile != "" {
		if err := catalog.Add(loadGraph(config.GraphFile)); err != nil {
			log.Fatalf("Failed to register workflow: %v", err)
		}
	}
	handler, err := api.NewHandler(api.Options{Engine: engine, Catalog: catalog, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to create API handler: %v", err)
	}
	if !config.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    config.ServeAddr,
		Handler: api.NewRouter(handler),
	}
	go func() {
		color.Green("Serving automation API on %s", config.ServeAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	color.Yellow("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}

// terminalSink prints notifications as they are announced
type terminalSink struct{}

func (s *terminalSink) Notify(ctx context.Context, severity automation.Severity, text string) {
	switch severity {
	case automation.SeveritySuccess:
		color.Green("  ✓ %s", text)
	case automation.SeverityError:
		color.Red("  ✗ %s", text)
	default:
		color.Cyan("  • %s", text)
	}
}

func showExecutionResults(execution *automation.Execution, err error, duration time.Duration, config *Config) {
	if config.JSON {
		output, jsonErr := json.MarshalIndent(execution.Record(), "", "  ")
		if jsonErr != nil {
			log.Fatalf("Failed to format execution record: %v", jsonErr)
		}
		fmt.Println(string(output))
		if err != nil {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("\n")
	color.Magenta("Log:")
	for _, entry := range execution.Logs() {
		line := fmt.Sprintf("  [%s] %s: %s", entry.Action, entry.NodeID, entry.Message)
		if entry.Succeeded() {
			color.White("%s", line)
		} else {
			color.Red("%s", line)
		}
	}

	fmt.Printf("\n")
	color.White("Execution %s finished in %v", execution.ID(), duration)
	color.White("Status: %s", execution.Status())
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	color.Green("Execution successful!")
}
