package sysfs

// Sensor reads the ambient light level. Implementations return an error when
// the reading is unavailable (missing device, unparsable content); callers
// treat any error as a transient absent value.
type Sensor interface {
	// Read returns the current ambient light reading in raw lux
	Read() (int, error)
}

// Backlight controls a single display backlight device
type Backlight interface {
	// Current returns the brightness level currently applied by the device
	Current() (int, error)

	// Max returns the device-reported maximum brightness level
	Max() int

	// Set writes a new brightness level. Errors satisfying
	// errors.Is(err, fs.ErrPermission) indicate the process lacks write
	// access to the device file.
	Set(value int) error

	// Path returns the device directory this backlight is bound to
	Path() string
}
