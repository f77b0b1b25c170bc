package api

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const importMaxBackups = 100

// @Title: Create Internal Backup
// @Route: POST /api/backup
// @Description: Create a timestamped backup of the ledger database
// @Response: {"status": "ok", "path": "..."}
func (s *Service) HandleBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.snaps == nil {
		s.writeError(w, http.StatusNotImplemented, "Backups not supported by this store")
		return
	}

	backupPath, err := s.snaps.BackupCurrent(importMaxBackups)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to create backup: %v", err))
		s.writeError(w, http.StatusInternalServerError, "Failed to create backup")
		return
	}

	s.logger.Info(fmt.Sprintf("API: Created backup at: %s", backupPath))
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"path":   backupPath,
	})
}

// @Title: Export Snapshot
// @Route: GET /api/snapshot/export
// @Description: Download a consistent snapshot of the ledger database
// @Response: application/octet-stream file download
func (s *Service) HandleSnapshotExport(w http.ResponseWriter, r *http.Request) {
	if s.snaps == nil {
		s.writeError(w, http.StatusNotImplemented, "Snapshots not supported by this store")
		return
	}

	data, err := s.snaps.ExportSnapshot()
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to export snapshot: %v", err))
		s.writeError(w, http.StatusInternalServerError, "Failed to export snapshot")
		return
	}

	filename := fmt.Sprintf("rbl-ledger-%s.db", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
	s.logger.Info(fmt.Sprintf("API: Served snapshot download: %s", filename))
}

// @Title: Import Snapshot
// @Route: POST /api/snapshot/import
// @Description: Replace ledger state with an uploaded snapshot; the old database is moved aside as a backup
// @Response: {"status": "ok", "backup": "..."}
func (s *Service) HandleSnapshotImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.snaps == nil {
		s.writeError(w, http.StatusNotImplemented, "Snapshots not supported by this store")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<30))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if len(data) == 0 {
		s.writeError(w, http.StatusBadRequest, "Empty snapshot upload")
		return
	}

	backupPath, err := s.snaps.ImportSnapshot(data, importMaxBackups)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to import snapshot: %v", err))
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Import failed: %v", err))
		return
	}

	s.logger.Info("API: Imported ledger snapshot from upload")
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"backup": backupPath,
	})
}
