package utils

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"slices"
	"strings"
)

var allowedResumeExtensions = []string{"pdf", "doc", "docx"}

func ValidateResumeFile(filename string, size int64, maxSize int64) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("file name is missing")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !slices.Contains(allowedResumeExtensions, ext) {
		return fmt.Errorf("%s: only pdf, doc and docx files are accepted", filename)
	}

	if size > maxSize {
		return fmt.Errorf("%s: file is larger than %d MB", filename, maxSize/(1024*1024))
	}

	if size == 0 {
		return fmt.Errorf("%s: file is empty", filename)
	}

	return nil
}

// NameFromEmail is the display name given to users created through an invite.
func NameFromEmail(email string) string {
	if addr, err := mail.ParseAddress(email); err == nil {
		email = addr.Address
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
