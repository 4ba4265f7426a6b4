package sysfs

// IlluminanceSensor is a Sensor backed by an IIO sysfs attribute file,
// typically /sys/bus/iio/devices/iio:device0/in_illuminance_raw
type IlluminanceSensor struct {
	path string
}

// NewSensor creates a sensor bound to the given sysfs attribute file
func NewSensor(path string) *IlluminanceSensor {
	return &IlluminanceSensor{path: path}
}

// Read returns the current ambient light reading in raw lux
func (s *IlluminanceSensor) Read() (int, error) {
	return readIntFile(s.path)
}
