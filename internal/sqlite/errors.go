package sqlite

import (
	"fmt"
	"strings"

	"github.com/rpggio/breakwatch/internal/repository"
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// conflictOr maps unique violations to repository.ErrConflict and wraps
// anything else with msg.
func conflictOr(err error, msg string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", msg, repository.ErrConflict)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// likePattern builds a LIKE substring pattern with % and _ escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
