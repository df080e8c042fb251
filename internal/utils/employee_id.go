package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// EmployeeIDPrefix starts every generated employee number.
const EmployeeIDPrefix = "EMP"

// GenerateEmployeeID generates a random employee number in the format EMPXXXXXX
func GenerateEmployeeID() (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return EmployeeIDPrefix + strings.ToUpper(hex.EncodeToString(bytes)), nil
}
