package main

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/partforge/partforge/internal/db"
)

func openDB() (*sql.DB, string, func(), error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, "", func() {}, err
	}
	forgeDir := filepath.Join(workDir, ".partforge")
	if err := os.MkdirAll(forgeDir, 0o755); err != nil {
		return nil, "", func() {}, err
	}
	dbPath := filepath.Join(forgeDir, "partforge.db")
	storeDB, err := db.Open(dbPath)
	if err != nil {
		return nil, "", func() {}, err
	}
	return storeDB, workDir, func() { _ = storeDB.Close() }, nil
}
