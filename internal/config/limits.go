package config

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed limits.yaml
var limitsFile []byte

// Limits holds the upload, naming and PIN constraints enforced by room services.
type Limits struct {
	Upload struct {
		MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
		MaxFilesPerRoom  int   `yaml:"max_files_per_room"`
	} `yaml:"upload"`
	Names struct {
		MaxRoomKeyLength    int `yaml:"max_room_key_length"`
		MaxRoomNameLength   int `yaml:"max_room_name_length"`
		MaxFolderNameLength int `yaml:"max_folder_name_length"`
		MaxFileNameLength   int `yaml:"max_file_name_length"`
	} `yaml:"names"`
	PIN struct {
		Length   int           `yaml:"length"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"pin"`
}

// ParseLimits decodes a limits document.
func ParseLimits(data []byte) (*Limits, error) {
	var limits Limits
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return nil, fmt.Errorf("unmarshal limits: %w", err)
	}
	if limits.Upload.MaxFileSizeBytes <= 0 || limits.Upload.MaxFilesPerRoom <= 0 {
		return nil, fmt.Errorf("upload limits must be positive")
	}
	return &limits, nil
}

// DefaultLimits returns the embedded limits without environment overrides.
// The embedded file is part of the binary, so a decode failure is a build defect.
func DefaultLimits() *Limits {
	limits, err := ParseLimits(limitsFile)
	if err != nil {
		panic(fmt.Sprintf("embedded limits.yaml: %v", err))
	}
	return limits
}

// LoadLimits returns the embedded limits with environment overrides applied.
func LoadLimits() *Limits {
	limits := DefaultLimits()
	if mb := getEnvAsInt("MAX_FILE_SIZE_MB", 0); mb > 0 {
		limits.Upload.MaxFileSizeBytes = int64(mb) << 20
	}
	if n := getEnvAsInt("MAX_FILES_PER_ROOM", 0); n > 0 {
		limits.Upload.MaxFilesPerRoom = n
	}
	return limits
}
