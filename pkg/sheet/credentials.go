package sheet

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoCredentials is returned when neither the secret value nor the credential file is available.
var ErrNoCredentials = errors.New("no spreadsheet credentials configured")

// LoadCredentials returns service-account JSON, preferring the secret-store value over the file.
func LoadCredentials(secretJSON, file string) ([]byte, error) {
	if secret := strings.TrimSpace(secretJSON); secret != "" {
		return []byte(secret), nil
	}

	file = strings.TrimSpace(file)
	if file == "" {
		return nil, ErrNoCredentials
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: credential file %q not found", ErrNoCredentials, file)
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, fmt.Errorf("%w: credential file %q is empty", ErrNoCredentials, file)
	}
	return raw, nil
}
