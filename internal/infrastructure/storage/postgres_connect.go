package storage

import (
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const (
	postgresConnectAttemptsDefault = 20
	postgresConnectDelayDefault    = 2 * time.Second
)

// PostgresOptions controls how the Postgres backend connects.
type PostgresOptions struct {
	DSN string
	// AdminDSN is used to CREATE DATABASE when the target database is missing.
	// Empty means "try the same credentials against the postgres database".
	AdminDSN     string
	ConnectTries int
	ConnectDelay time.Duration
}

type postgresDSNInfo struct {
	User     string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
}

func openPostgresWithRetry(opts PostgresOptions) (*sql.DB, error) {
	attempts := opts.ConnectTries
	delay := opts.ConnectDelay
	if attempts <= 0 {
		attempts = postgresConnectAttemptsDefault
	}
	if delay <= 0 {
		delay = postgresConnectDelayDefault
	}

	var lastErr error
	created := false
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := sql.Open("postgres", opts.DSN)
		if err == nil {
			if err = db.Ping(); err == nil {
				return db, nil
			}
		}
		if db != nil {
			_ = db.Close()
		}
		lastErr = err
		if !created && isDatabaseMissingError(err) {
			if createErr := ensurePostgresDatabase(opts); createErr == nil {
				created = true
				continue
			} else {
				lastErr = createErr
			}
		}
		if attempt < attempts {
			log.Printf("[storage] postgres not ready (attempt %d/%d): %v", attempt, attempts, err)
			time.Sleep(delay)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("postgres connection failed")
	}
	return nil, lastErr
}

func ensurePostgresDatabase(opts PostgresOptions) error {
	info, ok := parsePostgresDSNInfo(opts.DSN)
	if !ok || info.DBName == "" || info.Host == "" || info.User == "" {
		return fmt.Errorf("database info not found in dsn")
	}
	baseDSN := info.buildURL("postgres")
	err := createPostgresDatabaseWithDSN(baseDSN, info.DBName)
	if err == nil {
		return nil
	}
	if admin := strings.TrimSpace(opts.AdminDSN); admin != "" && admin != baseDSN {
		return createPostgresDatabaseWithDSN(admin, info.DBName)
	}
	return err
}

func parsePostgresDSNInfo(dsn string) (postgresDSNInfo, bool) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return postgresDSNInfo{}, false
	}
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		if info, ok := parsePostgresURL(trimmed); ok {
			return info, true
		}
	}
	return parsePostgresKeyValue(trimmed)
}

func parsePostgresURL(raw string) (postgresDSNInfo, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return postgresDSNInfo{}, false
	}
	info := postgresDSNInfo{
		Host:    u.Hostname(),
		Port:    u.Port(),
		DBName:  strings.TrimPrefix(u.Path, "/"),
		SSLMode: u.Query().Get("sslmode"),
	}
	if u.User != nil {
		info.User = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			info.Password = pass
		}
	}
	if info.Port == "" {
		info.Port = "5432"
	}
	if info.SSLMode == "" {
		info.SSLMode = "disable"
	}
	return info, true
}

func parsePostgresKeyValue(raw string) (postgresDSNInfo, bool) {
	info := postgresDSNInfo{}
	for _, part := range strings.Fields(raw) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		val := strings.Trim(kv[1], `"'`)
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "user", "username":
			info.User = val
		case "password":
			info.Password = val
		case "host":
			info.Host = val
		case "port":
			info.Port = val
		case "dbname", "database":
			info.DBName = val
		case "sslmode":
			info.SSLMode = val
		}
	}
	if info.Port == "" {
		info.Port = "5432"
	}
	if info.SSLMode == "" {
		info.SSLMode = "disable"
	}
	if info.Host == "" && info.User == "" && info.DBName == "" {
		return postgresDSNInfo{}, false
	}
	return info, true
}

func (p postgresDSNInfo) buildURL(dbName string) string {
	host := p.Host
	if host != "" {
		port := p.Port
		if port == "" {
			port = "5432"
		}
		host = net.JoinHostPort(host, port)
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + dbName,
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	if strings.TrimSpace(p.SSLMode) != "" {
		q := u.Query()
		q.Set("sslmode", p.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func createPostgresDatabaseWithDSN(dsn, dbName string) error {
	if strings.TrimSpace(dsn) == "" || strings.TrimSpace(dbName) == "" {
		return fmt.Errorf("admin dsn or db name missing")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return err
	}
	if _, err := db.Exec("CREATE DATABASE " + quoteIdentifier(dbName)); err != nil {
		if isDatabaseExistsError(err) {
			return nil
		}
		return err
	}
	return nil
}

func isDatabaseMissingError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") && strings.Contains(msg, "database")
}

func isDatabaseExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") && strings.Contains(msg, "database")
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
