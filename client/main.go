package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/akamensky/argparse"
	"github.com/rs/zerolog"

	"go_tftp/client/comms"
	"go_tftp/constants"
	"go_tftp/session"
)

func initLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "tftp").Logger()
	if verbose {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}

func main() {
	args := argparse.NewParser("tftp", "RFC1350 TFTP client")

	bind := args.String("a", "address", &argparse.Options{Required: true, Help: "Server host address"})
	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})
	file := args.String("f", "file", &argparse.Options{Required: true, Help: "Remote file name"})
	local := args.String("o", "output", &argparse.Options{Required: false, Help: "Local file path (defaults to the remote name)"})
	mode := args.String("m", "mode", &argparse.Options{Required: false, Help: "Transfer mode (octet or netascii)",
		Default: constants.DEFAULT_MODE})
	op := args.Selector("x", "operation", []string{"get", "put"}, &argparse.Options{Required: true,
		Help: "Transfer direction"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Server port",
		Default: constants.DEFAULT_PORT})
	verbose := args.Flag("v", "verbose", &argparse.Options{Required: false, Help: "Debug logging"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	logger := initLogger(*verbose)

	localPath := *local
	if localPath == "" {
		localPath = *file
	}

	addr := *bind + ":" + strconv.Itoa(*port)

	cfg := session.Config{
		BlockSize:      constants.BLOCK_SIZE,
		ReceiveTimeout: constants.RECEIVE_TIMEOUT,
		Retransmit:     constants.RetransmitSchedule,
		FinalTimeout:   constants.FINAL_TIMEOUT,
	}

	client, err := comms.New(addr, *dscp, cfg, logger)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	started := time.Now()
	switch *op {
	case "get":
		err = client.Get(*file, localPath, *mode)
	case "put":
		err = client.Put(localPath, *file, *mode)
	}
	if err != nil {
		logger.Error().Err(err).Msg("transfer failed")
		os.Exit(1)
	}
	logger.Info().Dur("took", time.Since(started)).Msg("transfer complete")
}
