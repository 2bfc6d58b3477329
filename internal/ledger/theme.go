package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"myexpense/internal/storage"
)

const DefaultThemeKey = "myexpense_theme_v1"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var ErrInvalidTheme = errors.New("invalid theme")

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", ErrInvalidTheme
}

// ThemeStore persists the display theme. An unset or unrecognized value reads
// as light.
type ThemeStore struct {
	kv  storage.KV
	key string
}

func NewThemeStore(kv storage.KV, key string) *ThemeStore {
	if key == "" {
		key = DefaultThemeKey
	}
	return &ThemeStore{kv: kv, key: key}
}

func (s *ThemeStore) Get(ctx context.Context) (Theme, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return ThemeLight, nil
	}
	if err != nil {
		return "", fmt.Errorf("read theme: %w", err)
	}
	t, err := ParseTheme(raw)
	if err != nil {
		return ThemeLight, nil
	}
	return t, nil
}

func (s *ThemeStore) Set(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, string(t)); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}

// Toggle flips between light and dark and returns the new value.
func (s *ThemeStore) Toggle(ctx context.Context) (Theme, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	if err := s.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
