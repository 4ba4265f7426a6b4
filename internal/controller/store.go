package controller

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Sample is one learned (lux, brightness) observation pair
type Sample struct {
	Lux        int
	Brightness int
}

// MarshalJSON encodes a sample as a two-element [lux, brightness] array,
// the on-disk pair format of the preference file.
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Lux, s.Brightness})
}

// UnmarshalJSON decodes a two-element [lux, brightness] array
func (s *Sample) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	s.Lux = pair[0]
	s.Brightness = pair[1]
	return nil
}

// SampleStore is a bounded, persisted, insertion-ordered collection of
// learned samples. It is the sole persisted state of the agent: loaded once
// at startup, appended to on detected overrides, and fully rewritten to disk
// after every mutation. Not safe for concurrent use; the control loop is the
// only writer.
type SampleStore struct {
	path    string
	limit   int
	samples []Sample
	logger  *slog.Logger
}

// NewSampleStore creates a store persisting to the given file, retaining at
// most limit samples (oldest evicted first).
func NewSampleStore(path string, limit int, logger *slog.Logger) *SampleStore {
	return &SampleStore{
		path:   path,
		limit:  limit,
		logger: logger,
	}
}

// Load reads the persisted samples from disk. A missing file yields an empty
// store. A corrupt file is treated as no prior data: the store starts empty
// and the next append overwrites the file.
func (s *SampleStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.samples = nil
			return nil
		}
		return fmt.Errorf("failed to read preferences file: %w", err)
	}

	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		s.logger.Warn("Preference file is corrupt, starting with empty store",
			"path", s.path,
			"error", err)
		s.samples = nil
		return nil
	}

	s.samples = samples
	s.logger.Info("Loaded learned samples", "path", s.path, "count", len(samples))
	return nil
}

// Append records a new observation, evicts the oldest sample when the bound
// is exceeded, and synchronously rewrites the preference file.
func (s *SampleStore) Append(lux, brightness int) error {
	s.samples = append(s.samples, Sample{Lux: lux, Brightness: brightness})
	if len(s.samples) > s.limit {
		s.samples = s.samples[len(s.samples)-s.limit:]
	}
	return s.save()
}

// Samples returns a copy of the stored samples in insertion order
func (s *SampleStore) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Len returns the number of stored samples
func (s *SampleStore) Len() int {
	return len(s.samples)
}

// save rewrites the full preference file, human-readable
func (s *SampleStore) save() error {
	data, err := json.MarshalIndent(s.samples, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences file: %w", err)
	}

	return nil
}
