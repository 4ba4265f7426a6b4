package controller

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/saaga0h/lumen/pkg/config"
	"github.com/saaga0h/lumen/pkg/sysfs"
)

// ContextPublisher receives control-loop events for downstream consumers.
// Implementations must not block the loop; a nil publisher disables events.
type ContextPublisher interface {
	PublishAdjustment(lux, brightness int, source string)
	PublishOverride(lux, brightness int)
}

// Agent runs the sense-decide-act cycle: poll the ambient light sensor,
// detect manual overrides, learn from them, and drive the backlight through
// the predictive model. Single goroutine; all state below is owned by it.
type Agent struct {
	sensor    sysfs.Sensor
	backlight sysfs.Backlight
	store     *SampleStore
	model     *Model
	cfg       *config.Config
	logger    *slog.Logger
	publisher ContextPublisher

	// previous is the last brightness this agent wrote or recorded as an
	// override; nil until the first cycle that applies a value.
	previous *int

	// once-per-episode log guards
	sensorFailing    bool
	backlightFailing bool
	writeDenied      bool
}

// NewAgent creates a new backlight agent. publisher may be nil.
func NewAgent(sensor sysfs.Sensor, backlight sysfs.Backlight, store *SampleStore, cfg *config.Config, logger *slog.Logger, publisher ContextPublisher) *Agent {
	return &Agent{
		sensor:    sensor,
		backlight: backlight,
		store:     store,
		model:     NewModel(store, cfg.BrightnessMin, cfg.BrightnessMax, cfg.SensorMaxLux),
		cfg:       cfg,
		logger:    logger,
		publisher: publisher,
	}
}

// Start loads the learned samples and runs the control loop until the
// context is cancelled. The inter-cycle sleep is interruptible, so
// cancellation takes effect within one cycle.
func (a *Agent) Start(ctx context.Context) error {
	if err := a.store.Load(); err != nil {
		return err
	}

	a.logger.Info("Adaptive brightness control started",
		"backlight", a.backlight.Path(),
		"device_max", a.backlight.Max(),
		"poll_interval_ms", a.cfg.PollIntervalMs,
		"override_threshold", a.cfg.OverrideThreshold,
		"learned_samples", a.store.Len())

	for {
		delay := a.runCycle()

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// runCycle executes one Sense → Classify → Act pass and returns the delay
// before the next cycle: the normal poll interval, or the extended settle
// interval after a detected override.
func (a *Agent) runCycle() time.Duration {
	pollDelay := time.Duration(a.cfg.PollIntervalMs) * time.Millisecond
	settleDelay := time.Duration(a.cfg.OverrideSettleMs) * time.Millisecond

	// Sense: a failed sensor read skips the whole cycle
	lux, err := a.sensor.Read()
	if err != nil {
		if !a.sensorFailing {
			a.logger.Warn("Sensor read failed, skipping cycles until it recovers", "error", err)
			a.sensorFailing = true
		}
		return pollDelay
	}
	a.sensorFailing = false

	var current *int
	if value, err := a.backlight.Current(); err != nil {
		if !a.backlightFailing {
			a.logger.Warn("Backlight read failed", "error", err)
			a.backlightFailing = true
		}
	} else {
		a.backlightFailing = false
		current = &value
	}

	// Classify: a jump beyond the threshold means the user adjusted
	// brightness manually; record the preference and let it settle
	if IsOverride(current, a.previous, a.cfg.OverrideThreshold) {
		a.logger.Info("Manual brightness adjustment detected, recording preference",
			"lux", lux,
			"brightness", *current,
			"previous", *a.previous)

		if err := a.store.Append(lux, *current); err != nil {
			a.logger.Error("Failed to persist learned sample", "error", err)
		}
		a.previous = current

		if a.publisher != nil {
			a.publisher.PublishOverride(lux, *current)
		}
		return settleDelay
	}

	// Act: apply the predicted level when it differs from the device state
	target, source := a.model.PredictWithSource(lux)
	if current == nil || target != *current {
		if err := a.backlight.Set(target); err != nil {
			if errors.Is(err, fs.ErrPermission) {
				if !a.writeDenied {
					a.logger.Warn("No permission to write backlight, brightness left unchanged",
						"path", a.backlight.Path())
					a.writeDenied = true
				}
			} else {
				a.logger.Error("Failed to write backlight", "error", err)
			}
		} else {
			a.writeDenied = false
			a.logger.Debug("Brightness adjusted",
				"lux", lux,
				"brightness", target,
				"source", source)

			if a.publisher != nil {
				a.publisher.PublishAdjustment(lux, target, source)
			}
		}

		// The marker advances after the write attempt regardless of
		// outcome; a denied write must not be flagged as an override
		// on the next cycle.
		a.previous = &target
	}

	return pollDelay
}
