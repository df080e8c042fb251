package database

import (
	"strings"

	"gorm.io/gorm"
)

// Concat returns a string concatenation expression for the active dialect.
// MySQL treats || as logical OR, so it gets CONCAT.
func Concat(db *gorm.DB, columns ...string) string {
	if db.Dialector.Name() == "mysql" {
		return "CONCAT(" + strings.Join(columns, ", ") + ")"
	}
	return "(" + strings.Join(columns, " || ") + ")"
}

// ContainsPattern builds a lowercase LIKE pattern for a substring match, escaped with '!'.
func ContainsPattern(term string) string {
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(strings.ToLower(term))
	return "%" + escaped + "%"
}

// quoteColumns quotes each column of a comma separated list.
func quoteColumns(db *gorm.DB, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = db.Statement.Quote(strings.TrimSpace(part))
	}
	return strings.Join(parts, ", ")
}
