package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service       = "mcnews"
	telegramToken = "telegram-token"
)

// TelegramToken reads the bot token from the OS keyring. A missing entry
// returns "" without error.
func TelegramToken() (string, error) {
	token, err := keyring.Get(service, telegramToken)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return token, nil
}

// SetTelegramToken stores the bot token in the OS keyring.
func SetTelegramToken(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	if err := keyring.Set(service, telegramToken, token); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// ClearTelegramToken removes the stored token; clearing an absent token is not an error.
func ClearTelegramToken() error {
	if err := keyring.Delete(service, telegramToken); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring entry: %w", err)
	}
	return nil
}
