/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

func newDocsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Inspect and remove documents",
	}
	cmd.AddCommand(newDocsPageCmd(a))
	cmd.AddCommand(newDocsPurgeCmd(a))
	return cmd
}

// parseKey reads a comma separated key, e.g. tenant-1,user-9.
func parseKey(s string) (partitionkey.Key, error) {
	return partitionkey.FromDelimited(s, ",")
}

// pageOutput is what docs page prints.
type pageOutput struct {
	Items             []any   `json:"items"`
	ContinuationToken string  `json:"continuationToken,omitempty"`
	RequestCharge     float64 `json:"requestCharge"`
}

func newDocsPageCmd(a *app) *cobra.Command {
	var (
		pk         string
		size       int
		token      string
		entityType string
	)
	cmd := &cobra.Command{
		Use:   "page <container>",
		Short: "Print one page of documents as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []storagemodels.QueryOption{
				storagemodels.WithPageSize(size),
				storagemodels.WithContinuationToken(token),
			}
			if pk != "" {
				key, err := parseKey(pk)
				if err != nil {
					return err
				}
				opts = append(opts, storagemodels.WithPartitionKey(key))
			}
			if entityType != "" {
				opts = append(opts, storagemodels.WithFilter(query.Eq(query.Field("entityType"), entityType)))
			}

			if err := a.load(); err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			page, err := store.GetPagedMixed(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pageOutput{
				Items:             page.Items,
				ContinuationToken: page.ContinuationToken,
				RequestCharge:     page.RequestCharge,
			})
		},
	}
	cmd.Flags().StringVar(&pk, "pk", "", "partition key levels, comma separated; empty queries all partitions")
	cmd.Flags().IntVar(&size, "size", storagemodels.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&token, "token", "", "continuation token of the previous page")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "only documents of this entity type")
	return cmd
}

func newDocsPurgeCmd(a *app) *cobra.Command {
	var pk string
	cmd := &cobra.Command{
		Use:   "purge <container>",
		Short: "Delete every document in one partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(pk)
			if err != nil {
				return err
			}
			if err := a.load(); err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.DeleteAll(cmd.Context(), args[0], key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s partition %s\n", args[0], key)
			return nil
		},
	}
	cmd.Flags().StringVar(&pk, "pk", "", "partition key levels, comma separated")
	_ = cmd.MarkFlagRequired("pk")
	return cmd
}
