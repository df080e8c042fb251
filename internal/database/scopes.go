package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.PageSize <= 0 {
			return db
		}
		return db.Offset(params.Offset).Limit(params.PageSize)
	}
}

// ContainsAny matches a lowercase substring against any of the expressions.
func ContainsAny(term string, expressions ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(expressions) == 0 {
			return db
		}
		pattern := ContainsPattern(term)
		cond := db.Session(&gorm.Session{NewDB: true})
		for i, expr := range expressions {
			clause := "LOWER(" + expr + ") LIKE ? ESCAPE '!'"
			if i == 0 {
				cond = cond.Where(clause, pattern)
			} else {
				cond = cond.Or(clause, pattern)
			}
		}
		return db.Where(cond)
	}
}
