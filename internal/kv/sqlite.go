package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultDBFile        = "ledger.db"
	defaultBackupDirName = "backups"
	maxBusyTimeoutMs     = 5000
	defaultMaxBackups    = 20
)

var errNoBackups = errors.New("no ledger backups available")

// SQLiteStore persists buckets of key-value entries in a SQLite database
// file. It recovers from corrupt database files by restoring the most
// recent backup, or starting fresh when none exists.
type SQLiteStore struct {
	mu        sync.RWMutex
	db        *sql.DB
	file      string
	backupDir string
	updates   chan struct{}
}

type backupInfo struct {
	path      string
	timestamp int64
}

// NewSQLiteStore opens (or creates) the ledger database at filePath.
func NewSQLiteStore(filePath string) (*SQLiteStore, error) {
	if filePath == "" {
		filePath = defaultDBFile
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}

	s := &SQLiteStore{
		file:      absPath,
		backupDir: filepath.Join(filepath.Dir(absPath), defaultBackupDirName),
		updates:   make(chan struct{}, 1),
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	if err := s.tryOpenOrRecover(); err != nil {
		return nil, err
	}

	if err := s.ensureSchema(); err != nil {
		_ = s.closeDB()
		return nil, err
	}

	return s, nil
}

// Updates returns a channel that receives a value whenever the store
// contents change.
func (s *SQLiteStore) Updates() <-chan struct{} {
	return s.updates
}

func (s *SQLiteStore) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeDB()
}

func (s *SQLiteStore) tryOpenOrRecover() error {
	if err := s.openDB(); err != nil {
		if recErr := s.recoverDatabase(err); recErr != nil {
			return recErr
		}
	}
	return nil
}

func (s *SQLiteStore) openDB() error {
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", filepath.Clean(s.file))

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", maxBusyTimeoutMs)); err != nil {
		db.Close()
		return fmt.Errorf("set busy timeout: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) recoverDatabase(openErr error) error {
	if err := s.restoreLatestBackup(); err != nil {
		if errors.Is(err, errNoBackups) {
			if cleanErr := s.resetDatabaseFiles(); cleanErr != nil {
				return fmt.Errorf("reset database after %v: %w", openErr, cleanErr)
			}
			if err := s.openDB(); err != nil {
				return fmt.Errorf("create fresh database after %v: %w", openErr, err)
			}
			return nil
		}
		return fmt.Errorf("restore database after %v: %w", openErr, err)
	}
	return nil
}

func (s *SQLiteStore) closeDB() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) resetDatabaseFiles() error {
	_ = s.closeDB()

	var firstErr error
	for _, path := range []string{s.file, s.file + "-wal", s.file + "-shm"} {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", filepath.Base(path), err)
			}
		}
	}
	return firstErr
}

func (s *SQLiteStore) removeSidecarFilesLocked() {
	for _, path := range []string{s.file + "-wal", s.file + "-shm"} {
		_ = os.Remove(path)
	}
}

func (s *SQLiteStore) restoreLatestBackup() error {
	base := filepath.Base(s.file)
	prefix := strings.TrimSuffix(base, filepath.Ext(base))
	backups, err := s.listBackups(prefix, filepath.Ext(base))
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return errNoBackups
	}

	latest := backups[len(backups)-1]
	if err := s.resetDatabaseFiles(); err != nil {
		return err
	}
	if err := copyFile(latest.path, s.file); err != nil {
		return fmt.Errorf("copy backup %s: %w", filepath.Base(latest.path), err)
	}
	return s.openDB()
}

func (s *SQLiteStore) listBackups(prefix, ext string) ([]backupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var backups []backupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix+"-") {
			continue
		}
		if ext != "" && !strings.HasSuffix(name, ext) {
			continue
		}

		stem := name
		if ext != "" {
			stem = strings.TrimSuffix(stem, ext)
		}
		tsPart := strings.TrimPrefix(stem, prefix+"-")
		ts, parseErr := strconv.ParseInt(tsPart, 10, 64)
		if parseErr != nil {
			info, statErr := entry.Info()
			if statErr != nil {
				continue
			}
			ts = info.ModTime().Unix()
		}

		backups = append(backups, backupInfo{
			path:      filepath.Join(s.backupDir, name),
			timestamp: ts,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].timestamp == backups[j].timestamp {
			return backups[i].path < backups[j].path
		}
		return backups[i].timestamp < backups[j].timestamp
	})

	return backups, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		bucket TEXT NOT NULL,
		k TEXT NOT NULL,
		v BLOB NOT NULL,
		PRIMARY KEY (bucket, k)
	)`)
	if err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	return nil
}

// Get returns the value stored under (bucket, key).
func (s *SQLiteStore) Get(bucket, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRow(`SELECT v FROM kv WHERE bucket = ? AND k = ?`, bucket, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	return value, true, nil
}

// Put stores value under (bucket, key), replacing any existing entry.
func (s *SQLiteStore) Put(bucket, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO kv (bucket, k, v) VALUES (?, ?, ?)
		ON CONFLICT(bucket, k) DO UPDATE SET v = excluded.v`, bucket, key, value)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	s.notify()
	return nil
}

// Delete removes the entry under (bucket, key). Deleting a missing key is
// not an error; the ledger performs its own existence checks.
func (s *SQLiteStore) Delete(bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM kv WHERE bucket = ? AND k = ?`, bucket, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	s.notify()
	return nil
}

// List returns every entry in the bucket.
func (s *SQLiteStore) List(bucket string) ([]Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT k, v FROM kv WHERE bucket = ? ORDER BY k`, bucket)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", bucket, err)
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", bucket, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// BackupCurrent writes a snapshot of the database to a timestamped file
// and prunes old backups beyond maxBackups. Returns the backup path when
// created.
func (s *SQLiteStore) BackupCurrent(maxBackups int) (string, error) {
	snapshot, err := s.ExportSnapshot()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backup directory: %w", err)
	}

	dir := s.backupDir
	base := filepath.Base(s.file)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	if prefix == "" {
		prefix = base
	}

	timestamp := time.Now().Unix()
	var backupPath string
	for {
		name := fmt.Sprintf("%s-%d%s", prefix, timestamp, ext)
		backupPath = filepath.Join(dir, name)
		if _, err := os.Stat(backupPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		timestamp++
	}

	if err := os.WriteFile(backupPath, snapshot, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	pruneBackups(dir, prefix, ext, maxBackups)

	return backupPath, nil
}

// ExportSnapshot returns a consistent copy of the current database
// contents.
func (s *SQLiteStore) ExportSnapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.file); errors.Is(err, os.ErrNotExist) {
		return nil, os.ErrNotExist
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.file), "ledger-export-*.db")
	if err != nil {
		return nil, fmt.Errorf("create temp export file: %w", err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()

	escaped := strings.ReplaceAll(tempPath, "'", "''")
	if _, err := s.db.Exec(fmt.Sprintf("VACUUM INTO '%s'", escaped)); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("vacuum into temp file: %w", err)
	}

	data, err := os.ReadFile(tempPath)
	os.Remove(tempPath)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}

	return data, nil
}

// ImportSnapshot replaces the current database contents with the provided
// SQLite database bytes. Returns the backup path if the existing database
// was moved aside.
func (s *SQLiteStore) ImportSnapshot(data []byte, maxBackups int) (string, error) {
	if len(data) == 0 {
		return "", errors.New("snapshot data is empty")
	}

	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}

	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare db directory: %w", err)
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("prepare backup directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "ledger-import-*.db")
	if err != nil {
		return "", fmt.Errorf("create temp import file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("write temp import file: %w", err)
	}
	tempFile.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.closeDB()

	var backupPath string
	if _, err := os.Stat(s.file); err == nil {
		backupPath = uniqueBackupPath(s.backupDir, filepath.Base(s.file))
		if err := os.Rename(s.file, backupPath); err != nil {
			_ = s.openDB()
			os.Remove(tempPath)
			return "", fmt.Errorf("rename existing db: %w", err)
		}
		s.removeSidecarFilesLocked()
	}

	if err := os.Rename(tempPath, s.file); err != nil {
		if backupPath != "" {
			_ = os.Rename(backupPath, s.file)
		}
		os.Remove(tempPath)
		_ = s.openDB()
		return "", fmt.Errorf("activate imported db: %w", err)
	}

	if err := s.openDB(); err != nil {
		if backupPath != "" {
			_ = os.Rename(backupPath, s.file)
			_ = s.openDB()
		}
		return "", fmt.Errorf("reopen db after import: %w", err)
	}

	if err := s.ensureSchema(); err != nil {
		return backupPath, err
	}

	base := filepath.Base(s.file)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	if prefix == "" {
		prefix = base
	}
	pruneBackups(s.backupDir, prefix, ext, maxBackups)

	s.notify()
	return backupPath, nil
}

func uniqueBackupPath(dir, base string) string {
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	if prefix == "" {
		prefix = base
	}

	timestamp := time.Now().Unix()
	for {
		name := fmt.Sprintf("%s-%d%s", prefix, timestamp, ext)
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		timestamp++
	}
}

func pruneBackups(dir, prefix, ext string, maxBackups int) {
	if maxBackups <= 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var backups []backupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix+"-") {
			continue
		}
		if ext != "" && !strings.HasSuffix(name, ext) {
			continue
		}

		stem := name
		if ext != "" {
			stem = strings.TrimSuffix(stem, ext)
		}
		tsPart := strings.TrimPrefix(stem, prefix+"-")
		ts, err := strconv.ParseInt(tsPart, 10, 64)
		if err != nil {
			info, statErr := entry.Info()
			if statErr != nil {
				continue
			}
			ts = info.ModTime().Unix()
		}

		backups = append(backups, backupInfo{
			path:      filepath.Join(dir, name),
			timestamp: ts,
		})
	}

	if len(backups) <= maxBackups {
		return
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].timestamp == backups[j].timestamp {
			return backups[i].path < backups[j].path
		}
		return backups[i].timestamp < backups[j].timestamp
	})

	for i := 0; i < len(backups)-maxBackups; i++ {
		_ = os.Remove(backups[i].path)
	}
}
