package roomsys

import (
	"fmt"
	"regexp"
	"strings"

	"pinroom/internal/config"
	"pinroom/internal/domain"
	roomsysSvc "pinroom/internal/domain/services/roomsys"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	roomKeyPattern    = regexp.MustCompile(`^[a-z0-9-]+$`)
	folderNamePattern = regexp.MustCompile(`^[^/]+$`)
)

// normalizeKey lowercases and trims a room key; keys are stored lowercase
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// normalizeID turns an empty folder id into nil (root level)
func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func pinPattern(length int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, length))
}

func validatePin(pin string, length int) error {
	if err := validation.Validate(pin,
		validation.Required,
		validation.Match(pinPattern(length)).Error(fmt.Sprintf("must be exactly %d digits", length)),
	); err != nil {
		return fmt.Errorf("%w: pin %v", domain.ErrValidation, err)
	}
	return nil
}

func validateCreateRoom(req *roomsysSvc.CreateRoomRequest, limits *config.Limits) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Key,
			validation.Required,
			validation.Length(1, limits.Names.MaxRoomKeyLength),
			validation.Match(roomKeyPattern).Error("may only contain letters, numbers and hyphens"),
		),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, limits.Names.MaxRoomNameLength),
		),
		validation.Field(&req.Pin,
			validation.Required,
			validation.Match(pinPattern(limits.PIN.Length)).Error(fmt.Sprintf("must be exactly %d digits", limits.PIN.Length)),
		),
	)
}

func validateFolderName(name string, maxLength int) error {
	if err := validation.Validate(name,
		validation.Required.Error("folder name cannot be empty"),
		validation.Length(1, maxLength),
		validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// uploadRejection returns why a file cannot be accepted, or "" if it can
func uploadRejection(upload roomsysSvc.Upload, limits *config.Limits) string {
	switch {
	case strings.TrimSpace(upload.Name) == "":
		return "missing file name"
	case len(upload.Name) > limits.Names.MaxFileNameLength:
		return fmt.Sprintf("file name longer than %d characters", limits.Names.MaxFileNameLength)
	case upload.Body == nil || upload.Size <= 0:
		return "empty file"
	case upload.Size > limits.Upload.MaxFileSizeBytes:
		return fmt.Sprintf("file too large: %d bytes exceeds the %d byte limit", upload.Size, limits.Upload.MaxFileSizeBytes)
	}
	return ""
}
