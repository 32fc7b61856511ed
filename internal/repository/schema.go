package repository

import (
	"fmt"
	"strings"
)

// createTableSQL is valid for both PostgreSQL and SQLite.
func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
		run_id     TEXT NOT NULL,
		title      TEXT NOT NULL,
		price      DOUBLE PRECISION NOT NULL,
		rating     DOUBLE PRECISION NOT NULL,
		colors     INTEGER NOT NULL,
		size       TEXT NOT NULL,
		gender     TEXT NOT NULL,
		scraped_at TEXT NOT NULL
	)`
}

var insertColumns = []string{"run_id", "title", "price", "rating", "colors", "size", "gender", "scraped_at"}

func dollarPlaceholders(i int) string { return fmt.Sprintf("$%d", i) }
func questionPlaceholders(int) string { return "?" }

func insertSQL(table string, placeholder func(int) string) string {
	marks := make([]string, len(insertColumns))
	for i := range marks {
		marks[i] = placeholder(i + 1)
	}
	return `INSERT INTO ` + table + ` (` + strings.Join(insertColumns, ", ") + `) VALUES (` + strings.Join(marks, ", ") + `)`
}
