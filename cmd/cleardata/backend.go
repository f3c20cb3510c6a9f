/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/cleardata/config"
	"github.com/suparena/cleardata/datastore"
	"github.com/suparena/cleardata/datastore/cosmos"
	"github.com/suparena/cleardata/datastore/ddb"
	"github.com/suparena/cleardata/datastore/mock"
	"github.com/suparena/cleardata/document"
	"github.com/suparena/cleardata/metrics"
	"github.com/suparena/cleardata/partitionkey"
)

const tableWait = 2 * time.Minute

// backend is the configured document client plus its provisioning hook.
type backend struct {
	client datastore.DocumentClient
	ensure func(ctx context.Context, info partitionkey.ContainerInfo) (bool, error)
}

func (a *app) containers() ([]partitionkey.ContainerInfo, error) {
	if a.cfg.ContainersFile == "" {
		return nil, nil
	}
	return config.LoadContainers(a.cfg.ContainersFile)
}

func (a *app) openBackend(ctx context.Context) (*backend, error) {
	infos, err := a.containers()
	if err != nil {
		return nil, err
	}

	cfg := a.cfg
	switch cfg.Backend {
	case config.BackendCosmos:
		opts := []cosmos.Option{cosmos.WithLogger(a.log), cosmos.WithContainers(infos...)}
		var c *cosmos.Client
		if cfg.Cosmos.ConnectionString != "" {
			c, err = cosmos.NewClientFromConnectionString(cfg.Cosmos.ConnectionString, cfg.Cosmos.Database, opts...)
		} else {
			c, err = cosmos.NewClientWithKey(cfg.Cosmos.Endpoint, cfg.Cosmos.Key, cfg.Cosmos.Database, opts...)
		}
		if err != nil {
			return nil, err
		}
		return &backend{client: c, ensure: c.EnsureContainer}, nil

	case config.BackendDynamoDB:
		api, err := ddb.NewDynamoDBClient(ctx, cfg.DDB())
		if err != nil {
			return nil, err
		}
		opts := []ddb.Option{ddb.WithLogger(a.log)}
		if !cfg.DynamoDB.EntityTypeIndex {
			opts = append(opts, ddb.WithEntityTypeIndex(ddb.GSIConfig{}))
		}
		c, err := ddb.New(api, cfg.DynamoDB.Table, opts...)
		if err != nil {
			return nil, err
		}
		// All containers share one table.
		return &backend{client: c, ensure: func(ctx context.Context, _ partitionkey.ContainerInfo) (bool, error) {
			return c.EnsureTable(ctx, tableWait)
		}}, nil

	case config.BackendMemory:
		return &backend{client: mock.New(), ensure: func(context.Context, partitionkey.ContainerInfo) (bool, error) {
			return false, nil
		}}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func (a *app) openStore(ctx context.Context) (*document.Store, error) {
	b, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	opts := []document.Option{
		document.WithLogger(a.log),
		document.WithDeleteWindow(a.cfg.Batch.DeleteWindow),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, document.WithMetrics(metrics.NewRegistry(a.cfg.Metrics.Namespace)))
	}
	return document.NewStore(b.client, opts...), nil
}
