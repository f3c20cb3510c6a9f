/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suparena/cleardata/config"
)

func newContainersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "Container definition tools",
	}
	cmd.AddCommand(newContainersValidateCmd())
	cmd.AddCommand(newContainersEnsureCmd(a))
	return cmd
}

func newContainersValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a container definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := config.LoadContainers(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(out, "%s\t%s\n", info.Name, strings.Join(info.Paths(), ","))
			}
			fmt.Fprintf(out, "%d containers valid\n", len(infos))
			return nil
		},
	}
}

func newContainersEnsureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure <file>",
		Short: "Create the containers of a definition file that do not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := config.LoadContainers(args[0])
			if err != nil {
				return err
			}
			if err := a.load(); err != nil {
				return err
			}
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, info := range infos {
				created, err := b.ensure(cmd.Context(), info)
				if err != nil {
					return fmt.Errorf("ensure %s: %w", info.Name, err)
				}
				state := "exists"
				if created {
					state = "created"
				}
				fmt.Fprintf(out, "%s\t%s\n", info.Name, state)
			}
			return nil
		},
	}
}
