package alarmview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pulseone-console/pkg/client"
)

func TestTargetDisplay_FallbackChain(t *testing.T) {
	id := uint(42)

	tests := []struct {
		name string
		rule client.AlarmRule
		want string
	}{
		{
			"server value wins",
			client.AlarmRule{TargetDisplay: "Boiler A / temp", DeviceName: "ignored"},
			"Boiler A / temp",
		},
		{
			"device name",
			client.AlarmRule{DeviceName: "Boiler A", DataPointName: "temp"},
			"Boiler A",
		},
		{
			"data point name",
			client.AlarmRule{DataPointName: "temp_outlet"},
			"temp_outlet",
		},
		{
			"virtual point name",
			client.AlarmRule{VirtualPointName: "calc_efficiency"},
			"calc_efficiency",
		},
		{
			"type and id",
			client.AlarmRule{TargetType: "data_point", TargetID: &id},
			"data_point #42",
		},
		{
			"target group",
			client.AlarmRule{TargetType: "device", TargetGroup: "boilers"},
			"boilers",
		},
		{
			"bare type",
			client.AlarmRule{TargetType: "device"},
			"device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetDisplay(tt.rule))
		})
	}
}

func TestConditionDisplay_ThresholdSummary(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		rule client.AlarmRule
		want string
	}{
		{
			"server value wins",
			client.AlarmRule{ConditionDisplay: "custom", HighLimit: f(80)},
			"custom",
		},
		{
			"all four limits in fixed order",
			client.AlarmRule{
				HighHighLimit: f(100), HighLimit: f(80),
				LowLimit: f(20), LowLowLimit: f(10),
			},
			"HH: 100 | H: 80 | L: 20 | LL: 10",
		},
		{
			"partial limits",
			client.AlarmRule{HighLimit: f(80.5), LowLimit: f(20)},
			"H: 80.5 | L: 20",
		},
		{
			"integral floats drop the decimal",
			client.AlarmRule{HighLimit: f(80.0)},
			"H: 80",
		},
		{
			"no thresholds falls back to alarm type",
			client.AlarmRule{AlarmType: "digital"},
			"digital",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConditionDisplay(tt.rule))
		})
	}
}
