package main

import (
	"finzapp/internal/config" // Custom package for configuration
	"finzapp/internal/db"     // Migration runner
)

// Main function to run the database migration
func main() {
	cfg := config.LoadConfig()    // Load configuration
	db.Migrate(db.Dialector(cfg)) // Run migration against the configured relational engine
}
