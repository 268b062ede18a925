/*
 * Patch Panel - A software patch panel for OpenFlow switches
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 *  Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/stereocat/patch-panel/api"
	"github.com/stereocat/patch-panel/log"
	"github.com/stereocat/patch-panel/metrics"
	"github.com/stereocat/patch-panel/network"
	"github.com/stereocat/patch-panel/openflow"
	"github.com/stereocat/patch-panel/panel"
)

const (
	programName    = "patchpanel"
	programVersion = "0.1.0"
	eventQueueSize = 256
)

var (
	logger            = logging.MustGetLogger("main")
	loggerLeveled     logging.LeveledBackend
	showVersion       = flag.Bool("version", false, "Show program version and exit")
	defaultConfigFile = flag.String("config", fmt.Sprintf("/usr/local/etc/%v.yaml", programName), "absolute path of the configuration file")
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	flag.Parse()
	if *showVersion {
		fmt.Printf("Version: %v\n", programVersion)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	initConfig()
	if err := initLog(); err != nil {
		logger.Fatalf("failed to init log: %v", err)
	}

	topology, err := network.NewTopology(viper.GetInt("discovery.host_cache_size"))
	if err != nil {
		logger.Fatalf("failed to create the topology store: %v", err)
	}
	// DryRun is the default driver. It logs the flow rules and frames instead of
	// sending them. A southbound session posts switch events to the dispatcher.
	p := panel.New(openflow.DryRun{}, topology, viper.GetDuration("discovery.link_expiration"))
	dispatcher := panel.NewDispatcher(p, eventQueueSize)
	watchConfig(dispatcher)

	server := &api.Server{
		Port:       uint16(viper.GetInt("default.port")),
		Controller: p,
	}
	if viper.GetBool("rest.tls") {
		server.TLS.Cert = viper.GetString("rest.cert_file")
		server.TLS.Key = viper.GetString("rest.key_file")
	}
	if viper.GetBool("metrics.enable") {
		collector, err := metrics.New(nil, topology, p.Manager())
		if err != nil {
			logger.Fatalf("failed to init metrics: %v", err)
		}
		topology.Subscribe(collector)
		server.Metrics = collector.Handler()
		server.MetricsPath = viper.GetString("metrics.path")
	}

	initSignalHandler(p, cancel)
	go func() {
		if err := server.Serve(ctx); err != nil {
			logger.Fatalf("failed to run the API server: %v", err)
		}
		logger.Debug("API server terminated")
	}()

	dispatcher.Run(ctx, viper.GetDuration("discovery.interval"))
}

func initConfig() {
	viper.SetDefault("default.port", 9292)
	viper.SetDefault("log.driver", log.DriverStderr)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("discovery.interval", panel.DefaultProbeInterval)
	viper.SetDefault("discovery.link_expiration", 0)
	viper.SetDefault("discovery.host_cache_size", network.DefaultHostCacheSize)
	viper.SetDefault("metrics.enable", false)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetConfigFile(*defaultConfigFile)
	// Read the config file.
	if err := viper.ReadInConfig(); err != nil {
		logger.Fatalf("failed to read the config file: %v", err)
	}
	if err := validateConfig(); err != nil {
		logger.Fatalf("failed to validate the configuration: %v", err)
	}
}

// watchConfig applies the changes of the log level and the probe interval
// whenever the config file changes.
func watchConfig(dispatcher *panel.Dispatcher) {
	// Watching and re-reading config file whenever it changes.
	viper.OnConfigChange(func(e fsnotify.Event) {
		// Ignore the WRITE operation to avoid reading empty config.
		if e.Op != fsnotify.Write {
			return
		}
		if err := validateConfig(); err != nil {
			logger.Errorf("ignoring the invalid configuration: %v", err)
			return
		}

		if loggerLeveled != nil {
			// Set log level for all modules
			loggerLeveled.SetLevel(getLogLevel(), "")
		}
		dispatcher.SetProbeInterval(viper.GetDuration("discovery.interval"))
	})
	viper.WatchConfig()
}

func validateConfig() error {
	if port := viper.GetInt("default.port"); port <= 0 || port > 0xFFFF {
		return errors.New("invalid default.port")
	}
	if viper.GetBool("rest.tls") {
		if len(viper.GetString("rest.cert_file")) == 0 || len(viper.GetString("rest.key_file")) == 0 {
			return errors.New("rest.cert_file and rest.key_file are required for rest.tls")
		}
	}
	switch viper.GetString("log.driver") {
	case log.DriverStderr, log.DriverSyslog:
	default:
		return errors.New("invalid log.driver")
	}
	if len(viper.GetString("log.level")) == 0 {
		return errors.New("invalid log.level")
	}
	if viper.GetDuration("discovery.interval") <= 0 {
		return errors.New("invalid discovery.interval")
	}
	if viper.GetDuration("discovery.link_expiration") < 0 {
		return errors.New("invalid discovery.link_expiration")
	}
	if viper.GetInt("discovery.host_cache_size") <= 0 {
		return errors.New("invalid discovery.host_cache_size")
	}
	if viper.GetBool("metrics.enable") && len(viper.GetString("metrics.path")) == 0 {
		return errors.New("invalid metrics.path")
	}

	return nil
}

func initLog() error {
	backend, err := log.Init(viper.GetString("log.driver"), programName, getLogLevel())
	if err != nil {
		return err
	}
	loggerLeveled = backend

	return nil
}

func getLogLevel() logging.Level {
	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		logger.Infof("%v, defaulting to %v..", err, level)
	}

	return level
}

func initSignalHandler(p *panel.Panel, cancel context.CancelFunc) {
	go func() {
		c := make(chan os.Signal, 5)
		signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

		// Infinte loop.
		for {
			s := <-c
			if s == syscall.SIGTERM || s == syscall.SIGINT {
				// Graceful shutdown
				logger.Warning("Shutting down...")
				cancel()
				// Timeout for cancelation
				time.Sleep(5 * time.Second)
				os.Exit(0)
			} else if s == syscall.SIGHUP {
				fmt.Println("* Topology:")
				snapshot := p.Snapshot()
				fmt.Printf("switches=%v, links=%v, hosts=%v\n", len(snapshot.Switches), len(snapshot.Links), len(snapshot.Hosts))
				for _, v := range snapshot.Links {
					fmt.Println(v)
				}
				fmt.Printf("\n* Patches:\n")
				for _, v := range p.ListPatches() {
					fmt.Println(v)
				}
			}
		}
	}()
}
