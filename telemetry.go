package anvil

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricLaunchCount      = []string{"anvil", "launch", "count"}
	MetricLaunchErrorCount = []string{"anvil", "launch", "error", "count"}
	MetricConfigBytes      = []string{"anvil", "launch", "config", "bytes"}
	MetricStopCount        = []string{"anvil", "launch", "stop", "count"}
)

type TelemetryLabel string

var (
	LabelError      TelemetryLabel = "error"
	LabelBinary     TelemetryLabel = "binary"
	LabelProtocol   TelemetryLabel = "protocol"
	LabelConfigPath TelemetryLabel = "config_path"
	LabelPid        TelemetryLabel = "pid"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}
