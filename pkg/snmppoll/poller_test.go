package snmppoll

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsewatch/pulsewatch/pkg/config"
	"github.com/pulsewatch/pulsewatch/pkg/ingest"
	"github.com/pulsewatch/pulsewatch/pkg/models"
)

type fakeClient struct {
	values map[string]interface{}
	err    error
	closed bool
}

func (f *fakeClient) Connect() error { return nil }

func (f *fakeClient) Get(_ []string) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.values, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

type fakeSink struct {
	requests []ingest.Request
	err      error
}

func (f *fakeSink) Ingest(req ingest.Request) (models.SensorReading, error) {
	if f.err != nil {
		return models.SensorReading{}, f.err
	}

	f.requests = append(f.requests, req)

	return models.SensorReading{DeviceID: req.DeviceID}, nil
}

func testTarget() config.SNMPTarget {
	return config.SNMPTarget{
		DeviceID:       "pump-1",
		Host:           "10.0.0.5",
		TemperatureOID: ".1.3.6.1.4.1.9999.1.1",
		VibrationOID:   ".1.3.6.1.4.1.9999.1.2",
		PressureOID:    ".1.3.6.1.4.1.9999.1.3",
	}
}

func TestPollTargetProducesReading(t *testing.T) {
	target := testTarget()

	client := &fakeClient{values: map[string]interface{}{
		target.TemperatureOID: 72,
		target.VibrationOID:   "0.25",
		target.PressureOID:    uint64(35),
	}}

	sink := &fakeSink{}
	factory := func(config.SNMPTarget) (Client, error) { return client, nil }

	p := NewPoller(config.SNMPConfig{Targets: []config.SNMPTarget{target}}, sink, factory)
	p.pollAll(context.Background())

	require.Len(t, sink.requests, 1)

	req := sink.requests[0]
	assert.Equal(t, "pump-1", req.DeviceID)
	assert.Equal(t, 72.0, *req.Temperature)
	assert.Equal(t, 0.25, *req.Vibration)
	assert.Equal(t, 35.0, *req.Pressure)
}

func TestPollTargetMissingOID(t *testing.T) {
	target := testTarget()

	client := &fakeClient{values: map[string]interface{}{
		target.TemperatureOID: 72,
	}}

	sink := &fakeSink{}
	factory := func(config.SNMPTarget) (Client, error) { return client, nil }

	p := NewPoller(config.SNMPConfig{Targets: []config.SNMPTarget{target}}, sink, factory)

	err := p.pollTarget(target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vibration")
	assert.Empty(t, sink.requests)
}

func TestPollTargetGetFailureResetsClient(t *testing.T) {
	target := testTarget()
	client := &fakeClient{err: errors.New("timeout")}

	var built int

	factory := func(config.SNMPTarget) (Client, error) {
		built++
		return client, nil
	}

	p := NewPoller(config.SNMPConfig{Targets: []config.SNMPTarget{target}}, &fakeSink{}, factory)

	require.Error(t, p.pollTarget(target))
	assert.True(t, client.closed)

	// The cached client was dropped, so the next poll rebuilds it.
	client.err = nil
	client.values = map[string]interface{}{
		target.TemperatureOID: 72.0,
		target.VibrationOID:   0.25,
		target.PressureOID:    35.0,
	}

	require.NoError(t, p.pollTarget(target))
	assert.Equal(t, 2, built)
}

func TestPollAllIsolatesTargetFailures(t *testing.T) {
	good := testTarget()

	bad := testTarget()
	bad.DeviceID = "press-2"
	bad.Host = "10.0.0.6"

	clients := map[string]*fakeClient{
		"pump-1": {values: map[string]interface{}{
			good.TemperatureOID: 72.0,
			good.VibrationOID:   0.25,
			good.PressureOID:    35.0,
		}},
		"press-2": {err: errors.New("unreachable")},
	}

	sink := &fakeSink{}
	factory := func(target config.SNMPTarget) (Client, error) { return clients[target.DeviceID], nil }

	p := NewPoller(config.SNMPConfig{Targets: []config.SNMPTarget{bad, good}}, sink, factory)
	p.pollAll(context.Background())

	// The bad target fails, the good one still reports.
	require.Len(t, sink.requests, 1)
	assert.Equal(t, "pump-1", sink.requests[0].DeviceID)
}

func TestLookupFloatHandlesLeadingDot(t *testing.T) {
	values := map[string]interface{}{".1.2.3": 42}

	v, err := lookupFloat(values, "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		wantErr  bool
	}{
		{name: "int", input: 42, expected: 42},
		{name: "uint64", input: uint64(7), expected: 7},
		{name: "float64", input: 3.5, expected: 3.5},
		{name: "numeric string", input: "0.8", expected: 0.8},
		{name: "garbage string", input: "hot", wantErr: true},
		{name: "unsupported type", input: []byte("x"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := toFloat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}
