// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eventbus

import (
	"github.com/netapp/guts/config"
	"github.com/netapp/guts/pkg/eventbus/executor"
	"github.com/netapp/guts/pkg/eventbus/types"
	antspool "github.com/netapp/guts/pkg/workerpool/ants"
	"github.com/netapp/guts/utils/errors"
)

// OptionsFromFile turns a configuration file into service options. Log and metrics settings are applied by the
// process, not the service.
func OptionsFromFile(f *config.File) ([]Option, error) {
	if f == nil {
		return nil, errors.InvalidInputError("configuration is nil")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	interval, err := f.Interval()
	if err != nil {
		return nil, err
	}
	opts := []Option{WithCleanupInterval(interval)}

	for _, p := range f.Policies {
		policy := types.ThreadPolicy(p.Name)
		switch p.Kind {
		case config.PolicyKindPooled:
			poolOpts := []antspool.ConfigOption{
				antspool.WithName(p.Name),
				antspool.WithNonBlocking(p.NonBlocking),
				antspool.WithPreAlloc(p.PreAlloc),
			}
			if p.Workers > 0 {
				poolOpts = append(poolOpts, antspool.WithNumWorkers(p.Workers))
			}
			if p.Pools > 1 {
				opts = append(opts, WithPooledPolicy(policy, antspool.NewMultiPoolConfig(
					antspool.WithNumPools(p.Pools),
					antspool.WithPoolOptions(poolOpts...),
				)))
			} else {
				opts = append(opts, WithPooledPolicy(policy, antspool.NewConfig(poolOpts...)))
			}
		case config.PolicyKindSequential:
			opts = append(opts, WithSequentialPolicy(policy, p.MailboxSize))
		case config.PolicyKindCurrent:
			opts = append(opts, WithExecutor(policy, executor.NewCurrentGoroutine(p.Name)))
		default:
			return nil, errors.UnsupportedConfigError("unsupported kind %q for thread policy %s", p.Kind, p.Name)
		}
	}
	return opts, nil
}
