package config

import (
	"fmt"

	"github.com/bengalssg/bengal/internal/bengalerr"
)

// Validate checks a merged Config for schema violations spec.md §7 calls
// out as ConfigErrors that should abort the build before any output is
// written: an unresolvable i18n strategy, a negative pagination page
// size, or the "prefix" i18n strategy without a default_language.
func Validate(cfg *Config) error {
	switch cfg.I18n.Strategy {
	case I18nNone, I18nPrefix:
	default:
		return bengalerr.ConfigError("invalid_i18n_strategy",
			fmt.Sprintf("i18n.strategy %q is not one of: none, prefix", cfg.I18n.Strategy),
			`set i18n.strategy to "none" or "prefix"`, nil)
	}

	if cfg.Pagination.PerPage < 0 {
		return bengalerr.ConfigError("invalid_pagination_per_page",
			fmt.Sprintf("pagination.per_page must be >= 0, got %d", cfg.Pagination.PerPage),
			"set pagination.per_page to a non-negative integer", nil)
	}

	if cfg.I18n.Strategy == I18nPrefix && cfg.I18n.DefaultLanguage == "" {
		return bengalerr.ConfigError("missing_default_language",
			"i18n.default_language is required when i18n.strategy is \"prefix\"",
			`set i18n.default_language, e.g. "en"`, nil)
	}

	return nil
}
