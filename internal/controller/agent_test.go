package controller

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/lumen/pkg/config"
)

type fakeSensor struct {
	lux int
	err error
}

func (f *fakeSensor) Read() (int, error) {
	return f.lux, f.err
}

type fakeBacklight struct {
	value    int
	max      int
	writes   []int
	readErr  error
	writeErr error
}

func (f *fakeBacklight) Current() (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.value, nil
}

func (f *fakeBacklight) Max() int {
	return f.max
}

func (f *fakeBacklight) Set(value int) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.value = value
	f.writes = append(f.writes, value)
	return nil
}

func (f *fakeBacklight) Path() string {
	return "/sys/class/backlight/fake"
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.PreferencesFile = filepath.Join(t.TempDir(), "brightness_data.json")
	cfg.PollIntervalMs = 1
	cfg.OverrideSettleMs = 5
	return cfg
}

func newTestAgent(t *testing.T, sensor *fakeSensor, backlight *fakeBacklight, cfg *config.Config) (*Agent, *SampleStore) {
	t.Helper()

	store := NewSampleStore(cfg.PreferencesFile, cfg.MaxSamples, testLogger())
	require.NoError(t, store.Load())
	return NewAgent(sensor, backlight, store, cfg, testLogger(), nil), store
}

func TestAgent_AppliesDefaultMappingOnce(t *testing.T) {
	cfg := testConfig(t)
	sensor := &fakeSensor{lux: 200}
	backlight := &fakeBacklight{value: 100, max: 255}
	agent, _ := newTestAgent(t, sensor, backlight, cfg)

	// First cycle maps lux=200 to 51 and writes it
	delay := agent.runCycle()
	assert.Equal(t, []int{51}, backlight.writes)
	assert.Equal(t, time.Duration(cfg.PollIntervalMs)*time.Millisecond, delay)

	// Steady lux with no override produces no further writes
	for i := 0; i < 5; i++ {
		agent.runCycle()
	}
	assert.Equal(t, []int{51}, backlight.writes)
}

func TestAgent_SensorFailureSkipsCycle(t *testing.T) {
	cfg := testConfig(t)
	sensor := &fakeSensor{err: errors.New("no such device")}
	backlight := &fakeBacklight{value: 100, max: 255}
	agent, store := newTestAgent(t, sensor, backlight, cfg)

	delay := agent.runCycle()

	assert.Empty(t, backlight.writes, "no brightness change without a reading")
	assert.Equal(t, 0, store.Len(), "no sample recorded without a reading")
	assert.Equal(t, time.Duration(cfg.PollIntervalMs)*time.Millisecond, delay)
}

func TestAgent_OverrideAfterAdjustment(t *testing.T) {
	cfg := testConfig(t)
	sensor := &fakeSensor{lux: 200}
	backlight := &fakeBacklight{value: 100, max: 255}
	agent, store := newTestAgent(t, sensor, backlight, cfg)

	agent.runCycle()
	require.Equal(t, []int{51}, backlight.writes)

	// The user turns brightness up while lux stays at 200
	backlight.value = 120

	delay := agent.runCycle()

	assert.Equal(t, []Sample{{200, 120}}, store.Samples())
	assert.Equal(t, []int{51}, backlight.writes, "override cycle must not write")
	assert.Equal(t, time.Duration(cfg.OverrideSettleMs)*time.Millisecond, delay,
		"override must extend the delay to let the change settle")

	// The recorded preference survives a reload
	reloaded := NewSampleStore(cfg.PreferencesFile, cfg.MaxSamples, testLogger())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []Sample{{200, 120}}, reloaded.Samples())
}

func TestAgent_NoOverrideWithoutPreviousValue(t *testing.T) {
	cfg := testConfig(t)
	sensor := &fakeSensor{lux: 200}
	// The user had already set 120 before the agent ever ran
	backlight := &fakeBacklight{value: 120, max: 255}
	agent, store := newTestAgent(t, sensor, backlight, cfg)

	agent.runCycle()

	// Without a previous applied value there is nothing to compare against,
	// so the first cycle applies the mapping instead of recording a sample
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []int{51}, backlight.writes)

	// From here the override path works: the user pushes back to 120
	backlight.value = 120
	agent.runCycle()
	assert.Equal(t, []Sample{{200, 120}}, store.Samples())
}

func TestAgent_OverrideThenLearn(t *testing.T) {
	cfg := testConfig(t)
	sensor := &fakeSensor{lux: 150}
	backlight := &fakeBacklight{value: 80, max: 255}
	agent, store := newTestAgent(t, sensor, backlight, cfg)

	steps := []struct {
		lux  int
		user int
	}{
		{150, 110},
		{200, 120},
		{250, 130},
	}

	for _, step := range steps {
		sensor.lux = step.lux
		agent.runCycle() // auto-adjustment
		backlight.value = step.user
		agent.runCycle() // override detection
	}

	require.Equal(t, 3, store.Len())

	// With three learned samples the fit must pull predictions toward the
	// user's preference: 120 at lux=200 instead of the default 51
	model := NewModel(store, cfg.BrightnessMin, cfg.BrightnessMax, cfg.SensorMaxLux)
	predicted := model.Predict(200)
	assert.InDelta(t, 120, float64(predicted), 2)
}

func TestAgent_PermissionDeniedKeepsRunning(t *testing.T) {
	cfg := testConfig(t)
	sensor := &fakeSensor{lux: 200}
	backlight := &fakeBacklight{value: 100, max: 255, writeErr: fs.ErrPermission}
	agent, store := newTestAgent(t, sensor, backlight, cfg)

	delay := agent.runCycle()

	assert.Empty(t, backlight.writes)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, time.Duration(cfg.PollIntervalMs)*time.Millisecond, delay,
		"denied write must not stall or terminate the loop")
}

func TestAgent_StartHonorsCancellation(t *testing.T) {
	cfg := testConfig(t)
	sensor := &fakeSensor{lux: 200}
	backlight := &fakeBacklight{value: 100, max: 255}
	agent, _ := newTestAgent(t, sensor, backlight, cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- agent.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop after cancellation")
	}
}
