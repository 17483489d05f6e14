// Package importer ingests movement batch files dropped by operators.
//
// A batch file is a CSV with one movement per row: account_id,amount,description.
// Rows are validated against the same rules as the movement API (existing
// account, integer amount, bounded description) before anything is written.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kili/models"
)

// Row is one parsed movement line.
type Row struct {
	AccountID   uint
	Amount      int64
	Description string
}

// ParseBatch reads and validates a CSV batch. A header line starting with
// "account" is skipped. The first malformed row aborts the whole batch so a
// partial file never half-imports.
func ParseBatch(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	var rows []Row
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "account") {
			continue
		}
		accountID, err := strconv.ParseUint(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil || accountID == 0 {
			return nil, fmt.Errorf("line %d: invalid account id %q", line, rec[0])
		}
		amount, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q", line, rec[1])
		}
		desc := strings.TrimSpace(rec[2])
		if desc == "" || len(desc) > models.DescriptionMaxLen {
			return nil, fmt.Errorf("line %d: description empty or longer than %d", line, models.DescriptionMaxLen)
		}
		rows = append(rows, Row{AccountID: uint(accountID), Amount: amount, Description: desc})
	}
	return rows, nil
}

// Importer writes parsed batches to the ledger.
type Importer struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

// ImportFile parses a batch file and inserts its movements. Every referenced
// account must exist; an unknown account aborts the batch before any insert.
func (im *Importer) ImportFile(path string) (int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	rows, err := ParseBatch(f)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		var account models.CurrentAccount
		if err := im.DB.First(&account, r.AccountID).Error; err != nil {
			return 0, fmt.Errorf("account %d does not exist", r.AccountID)
		}
	}
	inserted := 0
	err = im.DB.Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			m := models.Movement{AccountID: r.AccountID, Amount: r.Amount, Description: r.Description}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Watch processes every *.csv that appears in dir. Create events are
// debounced so a file is only read once fully written. Blocks until the
// watcher fails.
func (im *Importer) Watch(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	im.Log.Infow("watching for movement batches", "dir", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !IsBatchFile(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				im.Log.Warnw("watch error", "error", err)
			}
		}
	}()

	for name := range fileCh {
		path := filepath.Join(dir, name)
		n, err := im.ImportFile(path)
		if err != nil {
			im.Log.Warnw("batch rejected", "file", name, "error", err)
			continue
		}
		im.Log.Infow("batch imported", "file", name, "movements", n)
	}
	return nil
}

// IsBatchFile reports whether a file name looks like a movement batch.
func IsBatchFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
