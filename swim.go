package anvil

import (
	"encoding/json"
	"fmt"
	"time"

	leg_metrics "github.com/armon/go-metrics"
	"github.com/hashicorp/go-metrics"
	"github.com/hashicorp/memberlist"
)

// SwimSpec tunes the SWIM failure detector of a group. The zero-ish
// defaults below match what the runtime applies when the document
// leaves them out.
type SwimSpec struct {
	// PeriodLengthMsec is the length of one protocol period.
	PeriodLengthMsec int `json:"period_length_ms"`

	// SuspectTimeoutPeriods is how many periods a suspected member has
	// to refute before it is declared dead.
	SuspectTimeoutPeriods int `json:"suspect_timeout_periods"`

	// SubgroupMemberCount is how many members are asked to ping a
	// suspect indirectly.
	SubgroupMemberCount int `json:"subgroup_member_count"`

	// Disabled turns the failure detector off entirely.
	Disabled bool `json:"disable_ping,omitempty"`
}

func NewSwimSpec() *SwimSpec {
	return &SwimSpec{
		PeriodLengthMsec:      1000,
		SuspectTimeoutPeriods: 5,
		SubgroupMemberCount:   3,
	}
}

func (s *SwimSpec) Validate() error {
	if s.Disabled {
		return nil
	}
	if s.PeriodLengthMsec <= 0 {
		return fmt.Errorf("%w: period_length_ms = %d, should be > 0", ErrInvalidField, s.PeriodLengthMsec)
	}
	if s.SuspectTimeoutPeriods < 1 {
		return fmt.Errorf("%w: suspect_timeout_periods = %d, should be >= 1", ErrInvalidField, s.SuspectTimeoutPeriods)
	}
	if s.SubgroupMemberCount < 1 {
		return fmt.Errorf("%w: subgroup_member_count = %d, should be >= 1", ErrInvalidField, s.SubgroupMemberCount)
	}
	return nil
}

// MemberlistConfig projects the tuning onto a memberlist configuration,
// so Go-side tooling can join or observe a deployed group with the same
// failure-detector timing the runtime uses. Labels are attached to the
// metrics memberlist emits.
func (s *SwimSpec) MemberlistConfig(labels ...metrics.Label) *memberlist.Config {
	cfg := memberlist.DefaultLANConfig()
	period := time.Duration(s.PeriodLengthMsec) * time.Millisecond
	cfg.ProbeInterval = period
	cfg.GossipInterval = period
	cfg.ProbeTimeout = period / 2
	cfg.SuspicionMult = s.SuspectTimeoutPeriods
	cfg.IndirectChecks = s.SubgroupMemberCount

	// memberlist still links the pre-fork metrics module.
	cfg.MetricLabels = make([]leg_metrics.Label, len(labels))
	for i, label := range labels {
		cfg.MetricLabels[i] = leg_metrics.Label{
			Name:  label.Name,
			Value: label.Value,
		}
	}
	return cfg
}

// UnmarshalJSON decodes a standalone swim document, rejecting unknown
// keys and applying defaults for absent ones.
func (s *SwimSpec) UnmarshalJSON(raw []byte) error {
	decoded, err := decodeSwimSpec(raw)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

func decodeSwimSpec(raw json.RawMessage) (*SwimSpec, error) {
	var doc struct {
		PeriodLengthMsec      *int  `json:"period_length_ms,omitempty"`
		SuspectTimeoutPeriods *int  `json:"suspect_timeout_periods,omitempty"`
		SubgroupMemberCount   *int  `json:"subgroup_member_count,omitempty"`
		Disabled              *bool `json:"disable_ping,omitempty"`
	}
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	s := NewSwimSpec()
	if doc.PeriodLengthMsec != nil {
		s.PeriodLengthMsec = *doc.PeriodLengthMsec
	}
	if doc.SuspectTimeoutPeriods != nil {
		s.SuspectTimeoutPeriods = *doc.SuspectTimeoutPeriods
	}
	if doc.SubgroupMemberCount != nil {
		s.SubgroupMemberCount = *doc.SubgroupMemberCount
	}
	if doc.Disabled != nil {
		s.Disabled = *doc.Disabled
	}
	return s, nil
}
