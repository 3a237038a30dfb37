package anvil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/hashicorp/go-metrics"
)

// DefaultBinary is the runtime binary started when no override is
// given. It is resolved through PATH.
const DefaultBinary = "anvil"

// Deployment is a handle on a runtime process started by Launch.
type Deployment struct {
	logger *slog.Logger
	msink  metrics.MetricSink

	cmd        *exec.Cmd
	protocol   string
	configPath string

	lk      sync.Mutex
	stopped bool
}

// Launch serializes spec to a config file and starts the runtime
// process on it, passing the transport protocol, the verbosity level
// and the config path as arguments. The spec is expected to have been
// validated already; Launch does not re-check it.
//
// Unless WithConfigFile is used, the document lands in an anvil-*.json
// file inside the workdir, which is left behind for inspection when the
// process exits.
func Launch(ctx context.Context, spec *ProcessSpec, opts ...Option) (*Deployment, error) {
	cfg := config{
		binary:   DefaultBinary,
		logLevel: "info",
		workdir:  ".",
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLaunchConfig, err)
		}
	}

	var logger *slog.Logger
	if cfg.logHandler != nil {
		logger = slog.New(cfg.logHandler)
	} else {
		logger = slog.Default()
	}
	if cfg.msink == nil {
		cfg.msink = &metrics.BlackholeSink{}
	}

	document, err := spec.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}

	configPath := cfg.configPath
	if configPath == "" {
		f, err := os.CreateTemp(cfg.workdir, "anvil-*.json")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLaunchFailed, err)
		}
		configPath = f.Name()
		f.Close()
	}
	if err := os.WriteFile(configPath, document, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}
	cfg.msink.AddSample(MetricConfigBytes, float32(len(document)))

	protocol := spec.Runtime.Transport.Protocol()
	cmd := exec.CommandContext(ctx, cfg.binary,
		protocol,
		"-v", cfg.logLevel,
		"-c", configPath,
	)
	cmd.Dir = cfg.workdir
	cmd.Stdin = nil
	if cfg.forward {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		cfg.msink.IncrCounterWithLabels(MetricLaunchErrorCount, 1.0, []metrics.Label{
			LabelBinary.M(cfg.binary),
			LabelProtocol.M(protocol),
		})
		logger.Error("failed to start runtime",
			LabelError.L(err),
			LabelBinary.L(cfg.binary),
		)
		return nil, fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}
	cfg.msink.IncrCounter(MetricLaunchCount, 1.0)
	logger.Info("runtime started",
		LabelBinary.L(cfg.binary),
		LabelProtocol.L(protocol),
		LabelConfigPath.L(configPath),
		LabelPid.L(cmd.Process.Pid),
	)

	return &Deployment{
		logger:     logger,
		msink:      cfg.msink,
		cmd:        cmd,
		protocol:   protocol,
		configPath: configPath,
	}, nil
}

// Pid of the runtime process.
func (d *Deployment) Pid() int {
	return d.cmd.Process.Pid
}

// Protocol the runtime was started with.
func (d *Deployment) Protocol() string {
	return d.protocol
}

// ConfigPath is where the serialized document was written.
func (d *Deployment) ConfigPath() string {
	return d.configPath
}

// Wait blocks until the runtime process exits.
func (d *Deployment) Wait() error {
	err := d.cmd.Wait()
	d.lk.Lock()
	d.stopped = true
	d.lk.Unlock()
	return err
}

// Stop asks the runtime to terminate with SIGTERM. It does not wait
// for the process to exit.
func (d *Deployment) Stop() error {
	d.lk.Lock()
	defer d.lk.Unlock()
	if d.stopped {
		return ErrStopped
	}
	d.stopped = true

	d.logger.Info("stopping runtime", LabelPid.L(d.cmd.Process.Pid))
	d.msink.IncrCounter(MetricStopCount, 1.0)
	return d.cmd.Process.Signal(syscall.SIGTERM)
}
