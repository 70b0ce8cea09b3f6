package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/buildkite/shellwords"
	"github.com/joho/godotenv"
	"github.com/wtnb75/hellostatic"
)

// optsEnv holds extra flags, split like a shell command line and parsed
// before the real arguments.
const optsEnv = "HELLOSTATIC_OPTS"

// envFile returns the -env-file value in args, or "" when it is not given.
func envFile(args []string) string {
	file := ""
	for i, a := range args {
		if !strings.HasPrefix(a, "-") {
			continue
		}
		name := strings.TrimPrefix(strings.TrimPrefix(a, "-"), "-")
		if v, ok := strings.CutPrefix(name, "env-file="); ok {
			file = v
		} else if name == "env-file" && i+1 < len(args) {
			file = args[i+1]
		}
	}
	return file
}

func loadEnvFile(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("env file not loaded", "path", path, "error", err)
	}
}

// loadEnv loads the dotenv file and prepends the words of HELLOSTATIC_OPTS
// to args. An -env-file inside HELLOSTATIC_OPTS is loaded too unless args
// name one.
func loadEnv(args []string) []string {
	path := envFile(args)
	if path == "" {
		loadEnvFile(".env")
	} else {
		loadEnvFile(path)
	}
	opts := os.Getenv(optsEnv)
	if opts == "" {
		return args
	}
	words, err := shellwords.Split(opts)
	if err != nil {
		slog.Warn("cannot split "+optsEnv, "value", opts, "error", err)
		return args
	}
	if p := envFile(words); p != "" && path == "" {
		loadEnvFile(p)
	}
	return append(words, args...)
}

type cliFlags struct {
	mode    *string
	legacy  *bool
	verbose *bool
}

func newFlagSet(name string, config *hellostatic.Config) (*flag.FlagSet, *cliFlags) {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	flags.StringVar(&config.Listen, "listen", config.Listen, "listen address")
	flags.StringVar(&config.RootDir, "dir", config.RootDir, "serve directory")
	cli := &cliFlags{}
	cli.mode = flags.String("mode", string(config.Mode), "request handling mode (parsed or legacy), ignored with -legacy")
	flags.StringVar(&config.IndexFile, "index", config.IndexFile, "file served for the root request")
	flags.StringVar(&config.NotFoundFile, "notfound", config.NotFoundFile, "file served for everything else")
	flags.IntVar(&config.ReadLimit, "read-limit", config.ReadLimit, "maximum request head size in bytes")
	flags.DurationVar(&config.ReadTimeout, "read-timeout", config.ReadTimeout, "per-connection read timeout, 0 disables")
	flags.DurationVar(&config.WriteTimeout, "write-timeout", config.WriteTimeout, "per-connection write timeout, 0 disables")
	flags.IntVar(&config.MaxConns, "max-conns", config.MaxConns, "maximum concurrent connections, 0 is unlimited")
	flags.BoolVar(&config.Serial, "serial", config.Serial, "handle one connection at a time")
	cli.legacy = flags.Bool("legacy", false, "start from the single-threaded 1024-byte legacy settings; explicit flags still apply")
	cli.verbose = flags.Bool("verbose", false, "enable verbose logging")
	flags.String("env-file", ".env", "dotenv file to load before parsing flags")
	return flags, cli
}

// legacyConfig starts from LegacyConfig and copies over only the flags that
// were set explicitly.
func legacyConfig(flags *flag.FlagSet, config *hellostatic.Config) *hellostatic.Config {
	lc := hellostatic.LegacyConfig()
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			lc.Listen = config.Listen
		case "dir":
			lc.RootDir = config.RootDir
		case "index":
			lc.IndexFile = config.IndexFile
		case "notfound":
			lc.NotFoundFile = config.NotFoundFile
		case "read-limit":
			lc.ReadLimit = config.ReadLimit
		case "read-timeout":
			lc.ReadTimeout = config.ReadTimeout
		case "write-timeout":
			lc.WriteTimeout = config.WriteTimeout
		case "max-conns":
			lc.MaxConns = config.MaxConns
		case "serial":
			lc.Serial = config.Serial
		}
	})
	return lc
}

func realMain() error {
	config := hellostatic.CreateConfig()
	flags, cli := newFlagSet(os.Args[0], config)
	if err := flags.Parse(loadEnv(os.Args[1:])); err != nil {
		return err
	}
	level := slog.LevelInfo
	if *cli.verbose {
		level = slog.LevelDebug
	}
	slog.SetLogLoggerLevel(level)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	config.Mode = hellostatic.Mode(*cli.mode)
	if *cli.legacy {
		config = legacyConfig(flags, config)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	server, err := hellostatic.New(ctx, config)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}

func main() {
	if err := realMain(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
