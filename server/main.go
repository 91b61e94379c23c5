package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/akamensky/argparse"
	"github.com/rs/zerolog"

	"go_tftp/constants"
	"go_tftp/fileio"
	server "go_tftp/server/controller"
	"go_tftp/session"
)

func initLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "tftpd").Logger()
	if verbose {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}

func main() {
	args := argparse.NewParser("tftpd", "RFC1350 TFTP server")

	confPath := args.String("c", "config", &argparse.Options{Required: false, Help: "Path to TOML config file"})
	bind := args.String("l", "listen", &argparse.Options{Required: false, Help: "Listen on address"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Listening port"})
	path := args.String("r", "root", &argparse.Options{Required: false, Help: "Root path for served files"})
	readOnly := args.Flag("", "read-only", &argparse.Options{Required: false, Help: "Refuse write requests"})
	writeOnly := args.Flag("", "write-only", &argparse.Options{Required: false, Help: "Refuse read requests"})
	verbose := args.Flag("v", "verbose", &argparse.Options{Required: false, Help: "Debug logging"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	logger := initLogger(*verbose)

	cfg := defaultServerConfig()
	if *confPath != "" {
		cfg, err = loadServerConfig(*confPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", *confPath).Msg("could not load config")
		}
	}
	// Command line flags win over the config file.
	if *bind != "" {
		cfg.Listen = *bind
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *path != "" {
		cfg.Root = *path
	}
	if *readOnly {
		cfg.ReadOnly = true
	}
	if *writeOnly {
		cfg.WriteOnly = true
	}

	if cfg.Root == "" {
		fmt.Println("A root path is required (use -r or the config file)")
		os.Exit(1)
	}
	if cfg.ReadOnly && cfg.WriteOnly {
		fmt.Println("--read-only and --write-only together leave nothing to serve")
		os.Exit(1)
	}

	backend, err := fileio.NewFilesystem(cfg.Root, !cfg.WriteOnly, !cfg.ReadOnly)
	if err != nil {
		logger.Fatal().Err(err).Str("root", cfg.Root).Msg("could not open root directory")
	}

	bindTo := cfg.Listen + ":" + strconv.Itoa(cfg.Port)

	sessions := session.Config{
		BlockSize:      constants.BLOCK_SIZE,
		ReceiveTimeout: cfg.Timeout,
		Retransmit:     constants.RetransmitSchedule,
		FinalTimeout:   constants.FINAL_TIMEOUT,
	}

	srv := server.New(backend, sessions, logger)
	if err := srv.ListenAndServe(bindTo); err != nil {
		logger.Fatal().Err(err).Msg("listener failed")
	}
}
