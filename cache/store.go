package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"lyrics-timeline-go/logcolors"
	"lyrics-timeline-go/lyrics"
	"lyrics-timeline-go/utils"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "sources"

// SourceStore keeps the raw lyric channels submitted per track in BoltDB,
// mirrored in memory. Parsed sets are never stored here.
type SourceStore struct {
	mu                 sync.RWMutex
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
}

// Entry is the stored form of one track's channels
type Entry struct {
	Value    string    `json:"value"`
	StoredAt time.Time `json:"storedAt"`
}

// NewSourceStore opens (or creates) the store at dbPath
func NewSourceStore(dbPath string, backupPath string, compressionEnabled bool) (*SourceStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database at %s (size: %d bytes)", logcolors.LogStoreInit, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database at %s", logcolors.LogStoreInit, dbPath)
	}

	s := &SourceStore{
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
	}
	if err := s.open(); err != nil {
		return nil, err
	}

	log.Infof("%s Source store ready at %s (compression: %v)", logcolors.LogStore, dbPath, compressionEnabled)
	return s, nil
}

func (s *SourceStore) open() error {
	db, err := bolt.Open(s.dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open store database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create store bucket: %w", err)
	}

	s.db = db
	if err := s.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload entries: %v", logcolors.LogStore, err)
	}
	return nil
}

func (s *SourceStore) loadToMemory() error {
	s.memCache.Range(func(key, _ interface{}) bool {
		s.memCache.Delete(key)
		return true
	})

	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Skipping unreadable entry %s: %v", logcolors.LogStore, string(k), err)
				return nil
			}
			s.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d sources into memory", logcolors.LogStore, count)
	return nil
}

// Put stores src under id, replacing any previous value
func (s *SourceStore) Put(id string, src lyrics.Source) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode source %s: %w", id, err)
	}

	value := string(raw)
	if s.compressionEnabled {
		value, err = utils.CompressBytes(raw)
		if err != nil {
			return fmt.Errorf("failed to compress source %s: %w", id, err)
		}
	}

	entry := Entry{Value: value, StoredAt: time.Now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return err
	}

	s.memCache.Store(id, entry)
	return nil
}

// Get returns the source stored under id
func (s *SourceStore) Get(id string) (lyrics.Source, bool) {
	value, ok := s.memCache.Load(id)
	if !ok {
		return lyrics.Source{}, false
	}

	src, err := s.decode(value.(Entry))
	if err != nil {
		log.Errorf("%s Failed to decode source %s: %v", logcolors.LogStore, id, err)
		return lyrics.Source{}, false
	}
	return src, true
}

// decode reads entries written with or without compression, so toggling
// the compression flag keeps older entries readable
func (s *SourceStore) decode(entry Entry) (lyrics.Source, error) {
	raw := []byte(entry.Value)
	if utils.IsCompressed(entry.Value) {
		decompressed, err := utils.DecompressBytes(entry.Value)
		if err != nil {
			return lyrics.Source{}, err
		}
		raw = decompressed
	}

	var src lyrics.Source
	if err := json.Unmarshal(raw, &src); err != nil {
		return lyrics.Source{}, err
	}
	return src, nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (s *SourceStore) Delete(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.memCache.Delete(id)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(id))
	})
}

// Clear removes every stored source
func (s *SourceStore) Clear() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.memCache.Range(func(key, _ interface{}) bool {
		s.memCache.Delete(key)
		return true
	})

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// IDs returns the stored track ids in sorted order
func (s *SourceStore) IDs() []string {
	var ids []string
	s.memCache.Range(func(k, _ interface{}) bool {
		ids = append(ids, k.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}

// Stats returns the number of stored sources and their approximate size
func (s *SourceStore) Stats() (numKeys int, sizeInKB int) {
	s.memCache.Range(func(k, v interface{}) bool {
		numKeys++
		sizeInKB += len(k.(string)) + len(v.(Entry).Value)
		return true
	})
	sizeInKB = sizeInKB / 1024
	return
}

// Backup copies the database file into the backup directory and returns the
// new file's path
func (s *SourceStore) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileName := fmt.Sprintf("sources_backup_%s.db", time.Now().Format("2006-01-02_15-04-05.000"))
	backupFilePath := filepath.Join(s.backupPath, fileName)

	log.Infof("%s Creating backup at %s", logcolors.LogStoreBackup, backupFilePath)

	if err := s.db.Close(); err != nil {
		return "", fmt.Errorf("failed to close database for backup: %w", err)
	}

	copyErr := copyFile(s.dbPath, backupFilePath)
	if err := s.open(); err != nil {
		return "", fmt.Errorf("failed to reopen database after backup: %w", err)
	}
	if copyErr != nil {
		return "", fmt.Errorf("failed to copy database file: %w", copyErr)
	}

	log.Infof("%s Backup created: %s", logcolors.LogStoreBackup, backupFilePath)
	return backupFilePath, nil
}

// BackupAndClear backs the store up and then empties it
func (s *SourceStore) BackupAndClear() (string, error) {
	backupPath, err := s.Backup()
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := s.Clear(); err != nil {
		return backupPath, fmt.Errorf("backup created but failed to clear store: %w", err)
	}

	log.Infof("%s Store cleared (backup: %s)", logcolors.LogStoreClear, backupPath)
	return backupPath, nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// Close closes the database
func (s *SourceStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BackupInfo describes one backup file
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns the backup files, newest first
func (s *SourceStore) ListBackups() ([]BackupInfo, error) {
	backups := []BackupInfo{}

	entries, err := os.ReadDir(s.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Warnf("%s Failed to stat %s: %v", logcolors.LogStoreBackups, entry.Name(), err)
			continue
		}

		backups = append(backups, BackupInfo{
			FileName:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}
