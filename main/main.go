package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	log := logrus.New()
	log.SetOutput(stderr)

	return &cli.App{
		Name:      "lidl",
		Usage:     "build, pack and inspect zero-copy lidl messages",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log.level",
				Value:   "info",
				Usage:   "log level: trace, debug, info, warn, error",
				EnvVars: []string{"LIDL_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			lvl, err := logrus.ParseLevel(strings.ToLower(c.String("log.level")))
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
		Commands: []*cli.Command{
			demoCommand(log),
			packCommand(log),
			unpackCommand(log),
			inspectCommand(log),
		},
	}
}
