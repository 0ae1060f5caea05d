// Package database opens the SQLite file behind the message journal.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Forward-only schema migrations read from an fs.FS
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Journal.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql. Migrations
// are additive only; there is no down direction.
package database
