// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DBPool opens and holds the feedback store's single connection. Spec
// §6 names exactly one DATABASE_URL for the process lifetime, so unlike
// the teacher's DSN-keyed pool (built for a framework that juggles
// several agent session databases concurrently), there is nothing to
// key a map by: this service only ever opens one database.
type DBPool struct {
	db *sql.DB
}

// NewDBPool creates an empty pool; the connection is opened lazily by
// the first Get call.
func NewDBPool() *DBPool {
	return &DBPool{}
}

// Get opens the connection on first call and returns the same *sql.DB
// on every call after that.
func (p *DBPool) Get(cfg *DatabaseConfig) (*sql.DB, error) {
	if p.db != nil {
		return p.db, nil
	}

	driverName := cfg.DriverName()
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows only one writer at a time; a single connection
	// serializes access and avoids "database is locked" errors.
	if driverName == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(cfg.MaxConns)
		}
		if cfg.MaxIdle > 0 {
			db.SetMaxIdleConns(cfg.MaxIdle)
		}
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if driverName == "sqlite3" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			slog.Warn("failed to enable WAL mode", "error", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=10000"); err != nil {
			slog.Warn("failed to set busy timeout", "error", err)
		}
		// sqlite ignores FOREIGN KEY constraints unless this pragma is set
		// per connection; pkg/store relies on ON DELETE CASCADE (spec §4.10).
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			slog.Warn("failed to enable foreign key enforcement", "error", err)
		}
	}

	p.db = db
	return db, nil
}

// Close closes the pooled connection, if one was opened.
func (p *DBPool) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
