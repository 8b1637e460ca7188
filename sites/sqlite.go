// Copyright (c) 2024 The koop-output-dcat-ap-201 Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const createSitesTable = `CREATE TABLE IF NOT EXISTS sites (
	hostname TEXT PRIMARY KEY,
	site     TEXT NOT NULL
)`

// A SQLiteRegistry stores sites in a SQLite database, one JSON-encoded site
// per hostname.
type SQLiteRegistry struct {
	mutex sync.Mutex
	conn  *sqlite.Conn
}

// NewSQLiteRegistry opens (and if needed creates) the site database at the
// given path.
func NewSQLiteRegistry(path string) (*SQLiteRegistry, error) {
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open site registry '%s': %s", path, err.Error())
	}
	if err := sqlitex.ExecuteTransient(conn, createSitesTable, nil); err != nil {
		conn.Close()
		return nil, err
	}
	slog.Debug(fmt.Sprintf("Opened site registry %s", path))
	return &SQLiteRegistry{conn: conn}, nil
}

// Register adds the site to the registry, replacing any site with the same
// hostname.
func (r *SQLiteRegistry) Register(site Site) error {
	site.Hostname = NormalizeHostname(site.Hostname)
	if site.Hostname == "" {
		return fmt.Errorf("A site needs a hostname to be registered")
	}
	data, err := json.Marshal(site)
	if err != nil {
		return err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.conn == nil {
		return fmt.Errorf("The site registry is closed")
	}
	return sqlitex.Execute(r.conn,
		"INSERT OR REPLACE INTO sites (hostname, site) VALUES (?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{site.Hostname, string(data)},
		})
}

func (r *SQLiteRegistry) Lookup(ctx context.Context, hostname string) (Site, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.conn == nil {
		return Site{}, fmt.Errorf("The site registry is closed")
	}
	r.conn.SetInterrupt(ctx.Done())
	defer r.conn.SetInterrupt(nil)

	var data string
	found := false
	err := sqlitex.Execute(r.conn,
		"SELECT site FROM sites WHERE hostname = ?",
		&sqlitex.ExecOptions{
			Args: []any{NormalizeHostname(hostname)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data = stmt.ColumnText(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return Site{}, err
	}
	if !found {
		return Site{}, &NotFoundError{Hostname: hostname}
	}
	var site Site
	if err := json.Unmarshal([]byte(data), &site); err != nil {
		return Site{}, fmt.Errorf("Invalid site record for '%s': %s", hostname, err.Error())
	}
	return site, nil
}

func (r *SQLiteRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}
