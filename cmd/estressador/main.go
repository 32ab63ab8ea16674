// Package main wires the estressador CLI entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cpu-estressador/internal/buildinfo"
	"cpu-estressador/internal/cpuinfo"
	"cpu-estressador/pkg/burn"
	"cpu-estressador/pkg/monitor"
	"cpu-estressador/pkg/stress"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "/etc/cpu-estressador/config.yaml"
	defaultLogLevel   = "info"
	defaultProgName   = "estressador"

	usageFormat            = "Uso: %s <duracao_em_segundos> [num_threads]\n"
	invalidDurationMessage = "Duracao invalida\n"
	startupFormat          = "Estressando CPU por %d segundos usando %d threads (de %d CPUs logicos)\n"
	completedMessage       = "Finalizado.\n"

	exitCodeSuccess = 0
	exitCodeError   = 1
)

func main() {
	code := run(context.Background(), os.Args, defaultRunDeps(), os.Stdout, os.Stderr)
	if code != 0 {
		exitProcess(code)
	}
}

var exitProcess = os.Exit //nolint:gochecknoglobals // replaceable for tests

type runDeps struct {
	newLogger        func(level string) (*zap.Logger, error)
	loadConfig       func(path string) (runtimeConfig, error)
	describeHost     func(ctx context.Context) cpuinfo.Info
	notifySignals    func(ctx context.Context) (context.Context, context.CancelFunc)
	newSession       func(cfg sessionConfig) (stressSession, error)
	currentBuildInfo func() buildinfo.Info
}

// stressSession is the slice of stress.Runner the command drives.
type stressSession interface {
	Run(ctx context.Context) stress.Report
}

// sessionConfig carries everything the session factory needs to build a run.
type sessionConfig struct {
	duration        time.Duration
	workers         int
	tempLimit       float64
	monitorInterval time.Duration
	logger          *zap.Logger
}

func defaultRunDeps() runDeps {
	return runDeps{
		newLogger:        newLogger,
		loadConfig:       loadConfig,
		describeHost:     cpuinfo.Describe,
		notifySignals:    notifySignals,
		newSession:       defaultSessionFactory,
		currentBuildInfo: buildinfo.Current,
	}
}

//nolint:funlen // top-level wiring reads better unsplit
func run(ctx context.Context, args []string, deps runDeps, stdout, stderr io.Writer) int {
	progName := defaultProgName
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		progName = args[0]
	}

	opts, err := parseArgs(progName, argsTail(args))
	if err != nil {
		return usageError(stderr, progName, err)
	}

	cfg, err := deps.loadConfig(opts.configPath)
	if err != nil {
		return writeError(
			stderr,
			fmt.Errorf("failed to load configuration: %w", err),
			exitCodeError,
		)
	}

	applyFlagOverrides(&cfg, opts)

	logger, err := deps.newLogger(opts.logLevel)
	if err != nil {
		return writeError(
			stderr,
			fmt.Errorf("failed to configure logger: %w", err),
			exitCodeError,
		)
	}

	defer func() {
		_ = logger.Sync()
	}()

	host := deps.describeHost(ctx)
	workers := clampWorkers(opts.threads, host.Logical)

	fmt.Fprintf(stdout, startupFormat, opts.duration, workers, host.Logical)

	info := deps.currentBuildInfo()
	logger.Info(
		"starting cpu-estressador",
		zap.String("version", info.Version),
		zap.String("commit", info.GitCommit),
		zap.String("buildDate", info.BuildDate),
		zap.Int("durationSeconds", opts.duration),
		zap.Int("workers", workers),
		zap.Int("logicalCPUs", host.Logical),
	)
	logHostDetails(logger, host)

	signalCtx, stopSignals := deps.notifySignals(ctx)
	defer stopSignals()

	session, err := deps.newSession(sessionConfig{
		duration:        time.Duration(opts.duration) * time.Second,
		workers:         workers,
		tempLimit:       cfg.Monitor.TempLimit,
		monitorInterval: cfg.Monitor.Interval,
		logger:          logger,
	})
	if err != nil {
		logger.Error("failed to build stress session", zap.Error(err))

		return exitCodeError
	}

	report := session.Run(signalCtx)

	logReport(logger, report)

	fmt.Fprint(stdout, completedMessage)

	return exitCodeSuccess
}

// argsTail strips the program name so the flag set only sees arguments.
func argsTail(args []string) []string {
	if len(args) <= 1 {
		return nil
	}

	return args[1:]
}

func usageError(stderr io.Writer, progName string, err error) int {
	if errors.Is(err, errInvalidDurationArg) {
		fmt.Fprint(stderr, invalidDurationMessage)

		return exitCodeError
	}

	fmt.Fprintf(stderr, usageFormat, progName)

	return exitCodeError
}

func writeError(dst io.Writer, err error, code int) int {
	if err == nil {
		return code
	}

	_, ferr := fmt.Fprintf(dst, "%v\n", err)
	if ferr != nil {
		return code
	}

	return code
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "" {
		level = defaultLogLevel
	}

	cfg := zap.NewProductionConfig()

	err := cfg.Level.UnmarshalText([]byte(level))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.CallerKey = "caller"

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return logger, nil
}

type options struct {
	configPath string
	logLevel   string
	tempLimit  float64
	duration   int
	threads    int
}

var (
	errInvalidLogLevel    = errors.New("invalid log level")
	errMissingDuration    = errors.New("duration argument is required")
	errInvalidDurationArg = errors.New("duration must be a positive integer")
)

// parseArgs reads the ambient flags and the two positional arguments. The
// duration is mandatory and strict; the thread count tolerates anything
// and leaves zero in place for the caller to default.
func parseArgs(progName string, args []string) (options, error) {
	var opts options

	flagSet := flag.NewFlagSet(progName, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(
		&opts.configPath,
		"config",
		defaultConfigPath,
		"Path to the optional configuration file",
	)
	flagSet.StringVar(
		&opts.logLevel,
		"log-level",
		defaultLogLevel,
		"Structured log level (debug, info, warn, error)",
	)
	flagSet.Float64Var(
		&opts.tempLimit,
		"temp-limit",
		0,
		"Stop early when a sensor reaches this temperature in Celsius (0 disables)",
	)

	err := flagSet.Parse(args)
	if err != nil {
		return options{}, fmt.Errorf("parse CLI arguments: %w", err)
	}

	positionals := flagSet.Args()
	if len(positionals) < 1 {
		return options{}, errMissingDuration
	}

	duration, err := strconv.Atoi(strings.TrimSpace(positionals[0]))
	if err != nil || duration <= 0 {
		return options{}, errInvalidDurationArg
	}

	opts.duration = duration

	if len(positionals) >= 2 {
		threads, threadErr := strconv.Atoi(strings.TrimSpace(positionals[1]))
		if threadErr != nil || threads < 0 {
			threads = 0
		}

		opts.threads = threads
	}

	opts.logLevel = strings.TrimSpace(opts.logLevel)
	if opts.logLevel == "" {
		opts.logLevel = defaultLogLevel
	}

	opts.configPath = strings.TrimSpace(opts.configPath)

	return opts, nil
}

// clampWorkers maps the requested thread count onto the host: zero or
// negative requests take every logical CPU, oversized requests are capped.
func clampWorkers(requested, logicalCPUs int) int {
	if logicalCPUs < 1 {
		logicalCPUs = 1
	}

	if requested <= 0 || requested > logicalCPUs {
		return logicalCPUs
	}

	return requested
}

func applyFlagOverrides(cfg *runtimeConfig, opts options) {
	if opts.tempLimit > 0 {
		cfg.Monitor.TempLimit = opts.tempLimit
	}
}

func notifySignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

//nolint:ireturn // factory intentionally hides the runner implementation
func defaultSessionFactory(cfg sessionConfig) (stressSession, error) {
	pool, err := burn.NewPool(cfg.workers)
	if err != nil {
		return nil, fmt.Errorf("build worker pool: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool.SetPinErrorHandler(func(worker int, pinErr error) {
		logger.Warn(
			"failed to pin worker to its cpu",
			zap.Int("worker", worker),
			zap.Error(pinErr),
		)
	})

	sampler := monitor.NewSampler(nil, nil, cfg.monitorInterval)

	runner, err := stress.NewRunner(stress.Config{
		Duration:  cfg.duration,
		TempLimit: cfg.tempLimit,
	}, pool, sampler)
	if err != nil {
		return nil, fmt.Errorf("build stress runner: %w", err)
	}

	return runner, nil
}

func logHostDetails(logger *zap.Logger, host cpuinfo.Info) {
	fields := []zap.Field{
		zap.Int("logicalCPUs", host.Logical),
	}

	if host.Physical > 0 {
		fields = append(fields, zap.Int("physicalCores", host.Physical))
	}

	if host.ModelName != "" {
		fields = append(fields, zap.String("model", host.ModelName))
	}

	if host.Mhz > 0 {
		fields = append(fields, zap.Float64("mhz", host.Mhz))
	}

	logger.Debug("host processor", fields...)
}

func logReport(logger *zap.Logger, report stress.Report) {
	fields := []zap.Field{
		zap.String("cause", string(report.Cause)),
		zap.Duration("elapsed", report.Elapsed),
		zap.Int("workers", report.Workers),
		zap.Int("pinFailures", report.PinFailures),
		zap.Int("samples", report.Monitor.Samples),
	}

	if report.Monitor.Errors > 0 {
		fields = append(fields, zap.Int("sampleErrors", report.Monitor.Errors))
	}

	if report.Monitor.Utilisation.Count > 0 {
		fields = append(fields,
			zap.Float64("cpuAvg", report.Monitor.Utilisation.Avg),
			zap.Float64("cpuMax", report.Monitor.Utilisation.Max),
		)
	}

	if report.Monitor.Temperature.Count > 0 {
		fields = append(fields,
			zap.Float64("tempAvgCelsius", report.Monitor.Temperature.Avg),
			zap.Float64("tempMaxCelsius", report.Monitor.Temperature.Max),
		)
	}

	logger.Info("stress run finished", fields...)

	if report.Cause == stress.CauseTemperatureLimit {
		logger.Warn("temperature limit reached before the configured duration")
	}
}
