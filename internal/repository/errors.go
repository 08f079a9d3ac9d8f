package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isUniqueViolation detects unique constraint failures across drivers. The
// string checks cover connections opened without TranslateError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "duplicate key") || strings.Contains(low, "unique constraint")
}
