// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The vitals command is a demonstration of the sensor decoding and
// HRV analysis packages.
//
// The monitor subcommand connects to a sensor over Bluetooth LE,
// decodes its notifications, and publishes readings and rolling HRV
// and battery summaries to an MQTT broker. The decode, hrv and serial
// subcommands work offline on hex payloads, interval lists and
// firmware serial logs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kortschak/vitals/cmd/vitals/internal/config"
	"github.com/kortschak/vitals/cmd/vitals/internal/logger"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cfg := config.NewConfig()
	var log *zap.Logger

	app := &cli.App{
		Name:  "vitals",
		Usage: "decode and monitor wearable vital sign sensors",
		UsageText: "vitals [--config <file>] [--log <level>] <command> [arguments]" +
			"\n\nEXAMPLE:" +
			"\n\tmonitor a sensor and publish to a local broker" +
			"\n\t\tVITALS_MQTT_BROKER=tcp://127.0.0.1:1883 vitals monitor --device AA:BB:CC:DD:EE:FF",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Usage: "load configuration from `FILE` (default " + config.DefaultFile + " if present)"},
			&cli.StringFlag{Name: "env", Destination: &cfg.Flag.EnvFile, Usage: "load environment from `FILE` (default .env if present)"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Usage: "`LEVEL` defines the log level (debug|info|warn|error)"},
		},
		Before: func(*cli.Context) error {
			err := cfg.LoadConfig()
			if err != nil {
				return err
			}
			log, err = logger.New(cfg.Log.Level, cfg.Log.Format, "vitals")
			return err
		},
		After: func(*cli.Context) error {
			if log != nil {
				_ = log.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "monitor",
				Usage: "stream readings from a sensor",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Destination: &cfg.Flag.Device, Usage: "sensor bluetooth `ADDRESS`"},
				},
				Action: func(c *cli.Context) error {
					if cfg.Flag.Device != "" {
						cfg.Device.Address = cfg.Flag.Device
					}
					return monitorAction(c.Context, cfg, log)
				},
			},
			{
				Name:      "decode",
				Usage:     "decode a hex encoded payload",
				ArgsUsage: "<hex>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: kindAuto, Usage: "payload `KIND` (" + kindList() + ")"},
					&cli.IntFlag{Name: "rssi", Usage: "connection strength in `DBM`"},
				},
				Action: func(c *cli.Context) error {
					return decodeAction(c.App.Writer, c.String("kind"), c.Int("rssi"), cfg.Device.ID, c.Args().Slice())
				},
			},
			{
				Name:      "hrv",
				Usage:     "analyse RR intervals in milliseconds",
				ArgsUsage: "<value>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "bpm", Usage: "values are heart rates in beats per minute"},
				},
				Action: func(c *cli.Context) error {
					return hrvAction(c.App.Writer, c.Bool("bpm"), c.Args().Slice())
				},
			},
			{
				Name:      "serial",
				Usage:     "summarise a firmware serial log",
				ArgsUsage: "<log>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "reference", Aliases: []string{"r"}, Usage: "compare against the serial log in `FILE`"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("serial requires exactly one log file, got %d", c.NArg())
					}
					return serialAction(c.App.Writer, cfg.Device.ID, c.Args().First(), c.String("reference"))
				},
			},
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := app.RunContext(ctx, args)
	if err != nil {
		if log != nil {
			log.Error("vitals failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
