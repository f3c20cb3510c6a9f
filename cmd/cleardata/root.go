/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"github.com/spf13/cobra"

	"github.com/suparena/cleardata/config"
	"github.com/suparena/cleardata/logger"
)

// app carries the state shared by subcommands.
type app struct {
	configFile string
	envPrefix  string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "cleardata",
		Short:         "cleardata store tools",
		Long:          "Validate container layouts, provision containers and inspect documents in a cleardata store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.envPrefix, "env-prefix", config.DefaultEnvPrefix, "prefix of environment overrides")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newContainersCmd(a))
	root.AddCommand(newDocsCmd(a))
	return root
}

// load reads configuration and builds the logger once per invocation.
func (a *app) load() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load(a.configFile, a.envPrefix)
	if err != nil {
		return err
	}
	zl, err := logger.NewZapLogger(cfg.Logger())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = zl
	return nil
}
