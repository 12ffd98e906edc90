package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/retype/internal/config"
	"github.com/muurk/retype/internal/discovery"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/storeclient"
)

// target is the resolved store: the client plus the name used for the
// recent component list.
type target struct {
	name   string
	url    string
	client *storeclient.Client
}

// resolveStore picks the store from --store, the configured default, or
// mDNS discovery when nothing is configured and auto-discovery is on.
func resolveStore(ctx context.Context, opts *options) (*target, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	name := opts.store
	if name == "" && reg.Preferences != nil {
		name = reg.Preferences.DefaultStore
	}

	url, err := reg.ResolveStore(opts.store)
	if err != nil {
		if opts.store != "" || reg.Preferences == nil || !reg.Preferences.AutoDiscover {
			return nil, err
		}
		found, derr := discoverStore(ctx, time.Duration(reg.Preferences.DiscoverTimeout)*time.Second)
		if derr != nil {
			return nil, fmt.Errorf("%w; pass --store or run 'retype stores add'", err)
		}
		name, url = found.Instance, found.BaseURL()
		logging.Info("Using discovered store", zap.String("store", found.String()))
	}
	if strings.Contains(name, "://") {
		name = url
	}

	c := storeclient.New(url)
	c.SetTimeout(opts.timeout)
	return &target{name: name, url: url, client: c}, nil
}

func discoverStore(ctx context.Context, timeout time.Duration) (*discovery.Store, error) {
	scanner := discovery.NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	stores, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("no store found on the network")
	}
	return stores[0], nil
}

// remember records the component as recently opened. Failures only log.
func remember(t *target, id string) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return
	}
	reg.TouchComponent(t.name, id)
	if reg.GetStore(t.name) != nil {
		reg.MarkSeen(t.name, "")
	}
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}
