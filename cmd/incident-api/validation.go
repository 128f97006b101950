package main

import (
	"fmt"
	"regexp"
	"strings"
)

// safeFilenameRegex allows alphanumeric, dots, hyphens, underscores, spaces,
// and parentheses.
var safeFilenameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._ ()-]{0,254}$`)

func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("fileName is required")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("fileName contains invalid characters")
	}
	if !safeFilenameRegex.MatchString(name) {
		return fmt.Errorf("fileName contains invalid characters; only alphanumeric, dots, hyphens, underscores, spaces, and parentheses allowed")
	}
	return nil
}

// allowedVideoTypes is the content-type allowlist for incident videos
// (MP4, AVI, MOV).
var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/avi":       true,
	"video/x-msvideo": true,
	"video/quicktime": true,
}

func validateContentType(ct string) error {
	if ct == "" {
		return fmt.Errorf("fileType is required")
	}
	if !allowedVideoTypes[ct] {
		return fmt.Errorf("unsupported video format %q: use MP4, AVI, or MOV", ct)
	}
	return nil
}

// validateVideoKey accepts only keys the upload flow can have issued.
func validateVideoKey(key string) error {
	if !strings.HasPrefix(key, "videos/") {
		return fmt.Errorf("invalid videoKey: expected videos/<filename>")
	}
	return validateFilename(strings.TrimPrefix(key, "videos/"))
}
