// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// setup parses the command line, locates the corral configuration and builds
// the configured logger. Until the logging section has been read a
// development logger stands in so configuration failures are still visible.
func setup(args []string) (*viper.Viper, *zap.Logger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, logger, fmt.Errorf("building bootstrap logger: %w", err)
	}

	fs := pflag.NewFlagSet(applicationName, pflag.ContinueOnError)
	fs.StringP("file", "f", "", "config file to load instead of searching the corral config paths")
	fs.BoolP("debug", "d", false, "force DEBUG logging regardless of the configured level")
	fs.BoolP("version", "v", false, "print build information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, logger, fmt.Errorf("parsing arguments: %w", err)
	}
	if version, _ := fs.GetBool("version"); version {
		printVersionInfo(os.Stdout)
		os.Exit(0)
	}

	v := viper.New()
	v.SetEnvPrefix(applicationName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file, _ := fs.GetString("file"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(applicationName)
		v.AddConfigPath("/etc/" + applicationName)
		v.AddConfigPath("$HOME/." + applicationName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		return v, logger, fmt.Errorf("reading corral configuration: %w", err)
	}

	if debug, _ := fs.GetBool("debug"); debug {
		v.Set("logging.level", "DEBUG")
	}

	var loggingConfig sallust.Config
	if err := v.UnmarshalKey("logging", &loggingConfig, arrange.ComposeDecodeHooks(sallust.DecodeHook)); err != nil {
		return v, logger, fmt.Errorf("unmarshalling logging configuration: %w", err)
	}
	logger, err = loggingConfig.Build()
	return v, logger, err
}

func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "%s %s (commit %s, built %s, %s, %s/%s)\n",
		applicationName, Version, GitCommit, BuildTime,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
