// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command ellipticsctl runs storage operations against an in-process
// cluster. With a storage directory, data persists between runs.
//
//	ellipticsctl -dir /var/lib/ell write photo.jpg < photo.jpg
//	ellipticsctl -dir /var/lib/ell read photo.jpg > copy.jpg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"code.hybscloud.com/elliptics"
	"code.hybscloud.com/elliptics/cluster"
	"code.hybscloud.com/elliptics/config"
)

type options struct {
	configPath string
	dir        string
	groups     string
	namespace  string
	filter     string
	timeout    time.Duration
	logLevel   string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ellipticsctl:", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.configPath, "config", os.Getenv("ELLIPTICS_CONFIG"), "Path to TOML configuration (env: ELLIPTICS_CONFIG)")
	flag.StringVar(&opts.dir, "dir", "", "Storage directory, in-memory when empty")
	flag.StringVar(&opts.groups, "groups", "", "Comma separated groups")
	flag.StringVar(&opts.namespace, "namespace", "", "Key namespace")
	flag.StringVar(&opts.filter, "filter", "", "Reply filter: positive, all, all-with-ack")
	flag.DurationVar(&opts.timeout, "timeout", 0, "Operation timeout")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level: error, warning, info, notice, debug")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		return errors.New("no command")
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		return err
	}
	log := cfg.Log.Logger(os.Stderr)

	flog, err := cfg.Log.FileLogger()
	if err != nil {
		return err
	}
	if flog != nil {
		defer flog.Close()
		log = flog.Slog()
	}

	c, err := cluster.New(cfg.Storage.Options(&cfg.Client, log))
	if err != nil {
		return err
	}
	defer c.Close()

	node, err := elliptics.NewNode(flog, c)
	if err != nil {
		return err
	}
	node.SetTimeouts(cfg.Client.TimeoutDuration(), cfg.Client.CheckTimeoutDuration())
	if err := node.AddRemotes(cfg.Client.Remotes); err != nil {
		return fmt.Errorf("add remotes: %w", err)
	}

	tab := elliptics.NewTable()
	s, err := node.NewSession(tab, elliptics.WithLogger(log))
	if err != nil {
		return err
	}
	cfg.Client.Apply(s)
	s.SetTraceID(elliptics.NewTraceID())

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Client.TimeoutDuration()+time.Second)
	defer cancel()
	app := &cli{s: s, tab: tab, cfg: cfg}
	return app.dispatch(ctx, flag.Arg(0), flag.Args()[1:])
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg := &config.Config{}
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	cfg.Merge(&config.Config{
		Client: config.ClientConfig{
			Namespace: opts.namespace,
			Filter:    opts.filter,
		},
		Log:     config.LogConfig{Level: opts.logLevel},
		Storage: config.StorageConfig{Dir: opts.dir},
	})
	if opts.groups != "" {
		var groups []uint32
		for _, f := range strings.Split(opts.groups, ",") {
			g, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid -groups: %w", err)
			}
			groups = append(groups, uint32(g))
		}
		cfg.Client.Groups = groups
	}
	if opts.timeout > 0 {
		cfg.Client.Timeout = opts.timeout.String()
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: ellipticsctl [flags] command [args]

commands:
  id KEY                       print the routing identifier of KEY
  write KEY [DATA]             write DATA, or stdin, to KEY
  read KEY                     read KEY to stdout
  lookup KEY                   describe KEY in the first group that has it
  parallel-lookup KEY          describe KEY in every group
  remove KEY                   remove KEY
  bulk-remove KEY...           remove every KEY
  set-indexes KEY NAME=DATA... replace the indexes of KEY
  update-indexes KEY NAME=DATA...
                               add or overwrite indexes of KEY
  remove-indexes KEY NAME...   detach indexes from KEY
  list-indexes KEY             list the indexes of KEY
  find-all NAME...             find objects carrying every index
  find-any NAME...             find objects carrying any index
  addr KEY GROUP               print the node and backend of KEY in GROUP
  status ADDR                  print the backends of the node at ADDR
  enable|disable ADDR BACKEND  change backend state
  readonly|writable ADDR BACKEND
  defrag ADDR BACKEND          start defragmentation
  delay ADDR BACKEND MS        delay every request of the backend

flags:
`)
	flag.PrintDefaults()
}
