// Package vault persists session credentials in the OS keychain so a
// login survives process restarts. It is the substrate behind the
// session manager's Init/Dispose lifecycle; nothing else reads it.
package vault

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "backlify"

// Keys stored in the keychain. These mirror the persisted state the
// backend contract names: token pair, identity, and plan.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUsername     = "username"
	KeyUserPlan     = "userPlan"
)

var knownKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUsername, KeyUserPlan}

// Vault provides credential storage using the OS keychain, with
// fallback to environment variables for headless environments.
type Vault struct{}

// New creates a new Vault instance.
func New() *Vault {
	return &Vault{}
}

// Set stores a value under the given key in the OS keychain.
func (v *Vault) Set(key, value string) error {
	return keyring.Set(serviceName, key, value)
}

// Get retrieves the value for the given key. It first checks the OS
// keychain, then falls back to the environment variable
// BACKLIFY_{UPPER(key)}.
func (v *Vault) Get(key string) (string, error) {
	secret, err := keyring.Get(serviceName, key)
	if err == nil && secret != "" {
		return secret, nil
	}

	envKey := "BACKLIFY_" + strings.ToUpper(key)
	if val := os.Getenv(envKey); val != "" {
		return val, nil
	}

	return "", fmt.Errorf("vault: no value for %q: not in keychain and %s not set", key, envKey)
}

// Delete removes the value for the given key from the OS keychain.
// Deleting a key that does not exist is not an error.
func (v *Vault) Delete(key string) error {
	err := keyring.Delete(serviceName, key)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// Clear removes every known credential key. Used on logout and on a
// dead refresh token so a stale session never leaks into the next one.
func (v *Vault) Clear() error {
	var firstErr error
	for _, key := range knownKeys {
		if err := v.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// List returns the known keys that currently have stored values, in
// keychain or environment.
func (v *Vault) List() ([]string, error) {
	var present []string
	for _, key := range knownKeys {
		if val, err := v.Get(key); err == nil && val != "" {
			present = append(present, key)
		}
	}
	return present, nil
}
