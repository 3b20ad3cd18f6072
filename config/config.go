// Copyright 2025 NetApp, Inc. All Rights Reserved.

package config

import (
	"crypto/tls"
	"fmt"
	"runtime"
	"time"

	"github.com/brunoga/deep"
	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/netapp/guts/utils/errors"
)

const (
	/* Misc. product constants */
	ProductName    = "guts"
	productVersion = "25.10.0"
	CLIName        = "gutsctl"

	/* Event service defaults */
	DefaultCleanupInterval = 300 * time.Second
	DefaultMailboxSize     = 1024
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"

	/* Metrics frontend constants */
	DefaultMetricsAddress = ""
	DefaultMetricsPort    = "9500"
	MetricsPath           = "/metrics"
	HTTPTimeout           = 90 * time.Second
	MinServerTLSVersion   = tls.VersionTLS12
)

var (
	// BuildHash is the git hash the binary was built from
	BuildHash = "unknown"

	// BuildType is the type of build: custom, beta or stable
	BuildType = "custom"

	// BuildTypeRev is the revision of the build
	BuildTypeRev = "0"

	// BuildTime is the time the binary was built
	BuildTime = "unknown"
)

// Version returns the product version, qualified with the build type and hash for non-stable builds.
func Version() string {
	switch BuildType {
	case "stable":
		return productVersion
	case "custom":
		return fmt.Sprintf("%v-%v+%v", productVersion, BuildType, BuildHash)
	default:
		return fmt.Sprintf("%v-%v.%v+%v", productVersion, BuildType, BuildTypeRev, BuildHash)
	}
}

// GoVersion is the Go release the binary was built with.
func GoVersion() string {
	return runtime.Version()
}

// PolicyKind selects how a thread policy executes consumers.
type PolicyKind string

const (
	PolicyKindPooled     PolicyKind = "pooled"
	PolicyKindSequential PolicyKind = "sequential"
	PolicyKindCurrent    PolicyKind = "current"
)

// PolicyConfig describes one thread policy and the executor behind it.
type PolicyConfig struct {
	Name string     `json:"name"`
	Kind PolicyKind `json:"kind"`
	// Workers is the pool size of pooled policies. Zero selects the number of CPUs.
	Workers int `json:"workers,omitempty"`
	// Pools above one spreads a pooled policy over that many pools of Workers each.
	Pools       int  `json:"pools,omitempty"`
	NonBlocking bool `json:"nonBlocking,omitempty"`
	PreAlloc    bool `json:"preAlloc,omitempty"`
	// MailboxSize is the backlog of a sequential policy that is logged as a warning.
	MailboxSize int `json:"mailboxSize,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

type MetricsConfig struct {
	Address string `json:"address,omitempty"`
	Port    string `json:"port,omitempty"`
}

// File is the YAML configuration of an event service.
//
// Example:
//
//	cleanupInterval: 5m
//	log:
//	  level: debug
//	policies:
//	  - name: background
//	    kind: pooled
//	    workers: 8
//	  - name: ui
//	    kind: sequential
type File struct {
	CleanupInterval string         `json:"cleanupInterval,omitempty"`
	Log             LogConfig      `json:"log,omitempty"`
	Metrics         MetricsConfig  `json:"metrics,omitempty"`
	Policies        []PolicyConfig `json:"policies,omitempty"`
}

// DefaultFile returns the configuration used when no file is given.
func DefaultFile() *File {
	return &File{
		CleanupInterval: DefaultCleanupInterval.String(),
		Log:             LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Metrics:         MetricsConfig{Address: DefaultMetricsAddress, Port: DefaultMetricsPort},
	}
}

var osFs = afero.NewOsFs()

// LoadFile reads and validates the YAML file at path.
func LoadFile(path string) (*File, error) {
	data, err := afero.ReadFile(osFs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s; %v", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML or JSON data on top of the defaults and validates the result.
func Parse(data []byte) (*File, error) {
	f := DefaultFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.InvalidInputError("could not parse config; %v", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Interval returns the parsed cleanup interval, or the default when unset.
func (f *File) Interval() (time.Duration, error) {
	if f.CleanupInterval == "" {
		return DefaultCleanupInterval, nil
	}
	d, err := time.ParseDuration(f.CleanupInterval)
	if err != nil {
		return 0, errors.InvalidInputError("invalid cleanup interval %q; %v", f.CleanupInterval, err)
	}
	if d <= 0 {
		return 0, errors.InvalidInputError("cleanup interval must be positive, got %s", f.CleanupInterval)
	}
	return d, nil
}

// Validate reports every problem of the file at once.
func (f *File) Validate() error {
	var errs error

	if _, err := f.Interval(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if f.Log.Level != "" {
		if _, err := log.ParseLevel(f.Log.Level); err != nil {
			errs = multierr.Append(errs, errors.InvalidInputError("invalid log level %q", f.Log.Level))
		}
	}
	switch f.Log.Format {
	case "", "text", "json":
	default:
		errs = multierr.Append(errs, errors.InvalidInputError("invalid log format %q", f.Log.Format))
	}

	seen := make(map[string]bool, len(f.Policies))
	for i, p := range f.Policies {
		if p.Name == "" {
			errs = multierr.Append(errs, errors.InvalidInputError("policy %d has no name", i))
			continue
		}
		if seen[p.Name] {
			errs = multierr.Append(errs, errors.InvalidInputError("policy %s is defined twice", p.Name))
		}
		seen[p.Name] = true

		switch p.Kind {
		case PolicyKindPooled, PolicyKindSequential, PolicyKindCurrent:
		default:
			errs = multierr.Append(errs, errors.InvalidInputError("policy %s has unknown kind %q", p.Name, p.Kind))
		}
		if p.Workers < 0 {
			errs = multierr.Append(errs, errors.InvalidInputError("policy %s has negative workers", p.Name))
		}
		if p.Pools < 0 {
			errs = multierr.Append(errs, errors.InvalidInputError("policy %s has negative pools", p.Name))
		}
		if p.MailboxSize < 0 {
			errs = multierr.Append(errs, errors.InvalidInputError("policy %s has negative mailbox size", p.Name))
		}
	}
	return errs
}

// Copy returns a deep copy of f.
func (f *File) Copy() *File {
	copied, err := deep.Copy(f)
	if err != nil {
		fileCopy := *f
		fileCopy.Policies = append([]PolicyConfig(nil), f.Policies...)
		return &fileCopy
	}
	return copied
}

// YAML renders f for display.
func (f *File) YAML() ([]byte, error) {
	return yaml.Marshal(f)
}
