package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	brightnessFile    = "brightness"
	maxBrightnessFile = "max_brightness"
)

// Discover scans the sysfs backlight class directory and returns the first
// device directory that exposes both a brightness and a max_brightness
// attribute. Returns an error when no controllable device exists.
func Discover(base string) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("failed to read backlight class directory %s: %w", base, err)
	}

	for _, entry := range entries {
		candidate := filepath.Join(base, entry.Name())
		if fileExists(filepath.Join(candidate, brightnessFile)) &&
			fileExists(filepath.Join(candidate, maxBrightnessFile)) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no controllable backlight device under %s", base)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Device is a Backlight backed by a sysfs device directory
type Device struct {
	path string
	max  int
}

// NewBacklight binds to the backlight device at the given sysfs directory.
// The device-reported maximum is read once; a device without a readable
// max_brightness attribute is rejected.
func NewBacklight(devicePath string) (*Device, error) {
	max, err := readIntFile(filepath.Join(devicePath, maxBrightnessFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read max brightness for %s: %w", devicePath, err)
	}

	return &Device{
		path: devicePath,
		max:  max,
	}, nil
}

// Current returns the brightness level currently applied by the device
func (d *Device) Current() (int, error) {
	return readIntFile(filepath.Join(d.path, brightnessFile))
}

// Max returns the device-reported maximum brightness level
func (d *Device) Max() int {
	return d.max
}

// Set writes a new brightness level to the device
func (d *Device) Set(value int) error {
	target := filepath.Join(d.path, brightnessFile)
	if err := os.WriteFile(target, []byte(strconv.Itoa(value)), 0644); err != nil {
		return fmt.Errorf("failed to write brightness to %s: %w", target, err)
	}
	return nil
}

// Path returns the device directory this backlight is bound to
func (d *Device) Path() string {
	return d.path
}

// readIntFile reads a sysfs attribute file holding a single decimal integer
func readIntFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("unparsable value in %s: %w", path, err)
	}

	return value, nil
}
