package utils

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
)

// GenerateSecret produces a random signing secret for first-run setup.
func GenerateSecret() (string, error) {
	secret, err := password.Generate(48, 12, 0, false, true)
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return secret, nil
}
