package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const charsetQuery = `SELECT co.ID, co.CHARACTER_SET_NAME, co.COLLATION_NAME, cs.DEFAULT_COLLATE_NAME, cs.MAXLEN
FROM INFORMATION_SCHEMA.COLLATIONS co
JOIN INFORMATION_SCHEMA.CHARACTER_SETS cs ON cs.CHARACTER_SET_NAME = co.CHARACTER_SET_NAME
ORDER BY co.ID`

// openCharsetDB opens a MySQL connection used only to read collation metadata.
func openCharsetDB(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.InterpolateParams = true
	cfg.Loc = time.UTC
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// loadCharsets reads every collation id the server knows about.
func loadCharsets(ctx context.Context, db *sql.DB) (*charsetTable, error) {
	rows, err := db.QueryContext(ctx, charsetQuery)
	if err != nil {
		return nil, fmt.Errorf("query collations: %w", err)
	}
	defer rows.Close()

	var entries []CharsetInfo
	for rows.Next() {
		var ci CharsetInfo
		if err := rows.Scan(&ci.ID, &ci.Charset, &ci.Collation, &ci.DefaultCollation, &ci.MaxLen); err != nil {
			return nil, fmt.Errorf("scan collation: %w", err)
		}
		entries = append(entries, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read collations: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("server reported no collations")
	}
	return newCharsetTable(entries), nil
}

// newCharsetResolver builds the resolver selected by the charset config.
// A nil resolver with a nil error means charset ids stay unresolved.
func newCharsetResolver(ctx context.Context, cfg CharsetConfig) (CharsetResolver, error) {
	switch cfg.Source {
	case "", "builtin":
		return builtinCharsets(), nil
	case "none":
		return nil, nil
	case "mysql":
		db, err := openCharsetDB(cfg.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		table, err := loadCharsets(ctx, db)
		if err != nil {
			return nil, err
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported charset source %q (must be builtin, mysql or none)", cfg.Source)
	}
}
