package indexer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photo-index/internal/database"
	"photo-index/internal/logging"
	"photo-index/internal/media"
	"photo-index/internal/mediatypes"
	"photo-index/internal/metrics"
	"photo-index/internal/workers"
)

const (
	// Number of files to upsert per transaction
	batchSize = 500

	// Minimum files to index before marking the server ready
	minFilesForReady = 100

	// Delay between batches so searches are not starved during a scan
	batchDelay = 10 * time.Millisecond

	// Cap on EXIF extraction workers; beyond this the disk is the bottleneck
	maxExtractWorkers = 16

	// Deletions per scan that trigger a VACUUM afterwards
	vacuumThreshold = 1000
)

// Indexer manages the indexing of photos in the photos directory.
type Indexer struct {
	db            *database.Database
	photosDir     string
	indexInterval time.Duration
	stopChan      chan struct{}

	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	filesIndexed  atomic.Int64
	indexProgress atomic.Value

	// EXIF extraction worker count
	numWorkers int

	onIndexComplete func()
}

// IndexProgress tracks the current indexing progress.
type IndexProgress struct {
	FilesIndexed int64     `json:"filesIndexed"`
	IsIndexing   bool      `json:"isIndexing"`
	StartedAt    time.Time `json:"startedAt,omitempty"`
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Indexing          bool           `json:"indexing"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastIndexed       time.Time      `json:"lastIndexed,omitempty"`
	InitialIndexError string         `json:"initialIndexError,omitempty"`
	FilesIndexed      int64          `json:"filesIndexed"`
	IndexProgress     *IndexProgress `json:"indexProgress,omitempty"`
}

// New creates a new Indexer instance.
func New(db *database.Database, photosDir string, indexInterval time.Duration) *Indexer {
	idx := &Indexer{
		db:            db,
		photosDir:     photosDir,
		indexInterval: indexInterval,
		stopChan:      make(chan struct{}),
		startTime:     time.Now(),
		numWorkers:    workers.ForIO(maxExtractWorkers),
	}
	idx.indexProgress.Store(IndexProgress{})
	return idx
}

// SetOnIndexComplete sets a callback to be invoked when indexing completes.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start begins the indexing process.
func (idx *Indexer) Start() error {
	go func() {
		logging.Info("Starting initial index in background...")
		if err := idx.Index(); err != nil {
			logging.Error("Initial index error: %v", err)
			idx.indexMu.Lock()
			idx.initialIndexError = err
			idx.indexMu.Unlock()
		}
	}()

	go idx.periodicIndex()

	return nil
}

// Stop stops the indexing process.
func (idx *Indexer) Stop() {
	close(idx.stopChan)
}

// IsReady returns true if the server is ready to accept traffic.
func (idx *Indexer) IsReady() bool {
	if idx.filesIndexed.Load() >= minFilesForReady {
		return true
	}

	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// IsIndexing returns whether an index operation is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns the time of the last completed index operation.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// TriggerIndex manually triggers a re-index.
func (idx *Indexer) TriggerIndex() {
	go func() {
		if err := idx.Index(); err != nil {
			logging.Error("manually triggered re-index failed: %v", err)
		}
	}()
}

// GetProgress returns the current indexing progress.
func (idx *Indexer) GetProgress() IndexProgress {
	return idx.getProgress()
}

func (idx *Indexer) getProgress() IndexProgress {
	if progress, ok := idx.indexProgress.Load().(IndexProgress); ok {
		return progress
	}
	return IndexProgress{}
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	progress := idx.getProgress()

	status := HealthStatus{
		Ready:        idx.initialIndexComplete || idx.filesIndexed.Load() >= minFilesForReady,
		Indexing:     idx.isIndexing,
		StartTime:    idx.startTime,
		Uptime:       time.Since(idx.startTime).String(),
		LastIndexed:  idx.lastIndexTime,
		FilesIndexed: idx.filesIndexed.Load(),
	}

	if idx.isIndexing {
		status.IndexProgress = &progress
	}

	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}

	return status
}

// Index performs a full scan of the photos directory.
func (idx *Indexer) Index() error {
	if !idx.tryStartIndexing() {
		logging.Info("Index already in progress, skipping...")
		return nil
	}
	defer idx.finishIndexing()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	startTime := time.Now()
	logging.Info("Starting photo indexing...")

	idx.resetCounters(startTime)

	indexTime := time.Now()

	totalFiles, err := idx.walkAndIndex(startTime)
	if err != nil {
		metrics.IndexerErrors.Inc()
		metrics.IndexerRunsTotal.WithLabelValues("error").Inc()
		return err
	}

	// Remove records for files that disappeared since the last scan
	if err := idx.cleanupMissingFiles(indexTime); err != nil {
		logging.Error("Error cleaning up missing files: %v", err)
		metrics.IndexerErrors.Inc()
	}

	idx.finalizeIndex(startTime, totalFiles)

	duration := time.Since(startTime).Seconds()
	metrics.IndexerRunsTotal.WithLabelValues("success").Inc()
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(duration)
	metrics.IndexerFilesProcessed.Add(float64(totalFiles))

	return nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	idx.initialIndexComplete = true
}

func (idx *Indexer) resetCounters(startTime time.Time) {
	idx.filesIndexed.Store(0)
	idx.indexProgress.Store(IndexProgress{
		IsIndexing: true,
		StartedAt:  startTime,
	})
}

// walkAndIndex walks the photos directory and indexes files in batches.
func (idx *Indexer) walkAndIndex(startTime time.Time) (int64, error) {
	var paths []scanEntry

	err := filepath.Walk(idx.photosDir, func(path string, info os.FileInfo, err error) error {
		select {
		case <-idx.stopChan:
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if !mediatypes.IsPhotoFile(ext) {
			return nil
		}

		paths = append(paths, scanEntry{path: path, info: info})
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return 0, fmt.Errorf("walk error: %w", err)
	}

	logging.Info("Scan found %d photos, extracting metadata with %d workers", len(paths), idx.numWorkers)

	files := idx.extractParallel(paths)

	var total int64
	for i := 0; i < len(files); i += batchSize {
		select {
		case <-idx.stopChan:
			return total, nil
		default:
		}

		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}

		if err := idx.processBatch(files[i:end]); err != nil {
			logging.Error("Error processing batch: %v", err)
		}

		total += int64(end - i)
		idx.filesIndexed.Store(total)
		idx.updateProgress(startTime)

		time.Sleep(batchDelay)
	}

	return total, nil
}

type scanEntry struct {
	path string
	info os.FileInfo
}

// extractParallel fans EXIF extraction out to the worker pool and
// returns the files in scan order.
func (idx *Indexer) extractParallel(entries []scanEntry) []database.IndexedFile {
	files := make([]database.IndexedFile, len(entries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < idx.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				files[i] = idx.buildFile(entries[i])
			}
		}()
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return files
}

// buildFile creates an IndexedFile record from a scan entry, reading
// EXIF metadata from the photo itself.
func (idx *Indexer) buildFile(entry scanEntry) database.IndexedFile {
	ext := strings.ToLower(filepath.Ext(entry.info.Name()))

	file := database.IndexedFile{
		Name:     entry.info.Name(),
		Path:     entry.path,
		Dir:      filepath.Dir(entry.path),
		Size:     entry.info.Size(),
		ModTime:  entry.info.ModTime(),
		MimeType: mediatypes.GetMimeType(ext),
	}

	meta := media.ExtractMeta(entry.path)
	file.TakenAt = meta.TakenAt
	file.Lat = meta.Lat
	file.Lon = meta.Lon

	return file
}

func (idx *Indexer) updateProgress(startTime time.Time) {
	idx.indexProgress.Store(IndexProgress{
		FilesIndexed: idx.filesIndexed.Load(),
		IsIndexing:   true,
		StartedAt:    startTime,
	})
}

// finalizeIndex completes the indexing process and updates stats.
func (idx *Indexer) finalizeIndex(startTime time.Time, totalFiles int64) {
	duration := time.Since(startTime)

	idx.indexMu.Lock()
	idx.lastIndexTime = time.Now()
	idx.indexMu.Unlock()

	idx.indexProgress.Store(IndexProgress{
		FilesIndexed: totalFiles,
		IsIndexing:   false,
	})

	stats := idx.db.GetStats()
	idx.db.UpdateStats(database.IndexStats{
		TotalFiles:    stats.TotalFiles,
		TotalTags:     stats.TotalTags,
		LastIndexed:   idx.lastIndexTime,
		IndexDuration: duration.String(),
	})
	idx.db.UpdateDBMetrics()

	logging.Info("Index complete: %d photos in %v", totalFiles, duration)

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
}

// processBatch upserts a batch of files in a single transaction.
func (idx *Indexer) processBatch(files []database.IndexedFile) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}

	for i := range files {
		if err := idx.db.UpsertFile(tx, &files[i]); err != nil {
			logging.Warn("Error upserting file %s: %v", files[i].Path, err)
		}
	}

	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// cleanupMissingFiles removes files from the database that no longer exist on disk.
func (idx *Indexer) cleanupMissingFiles(indexTime time.Time) error {
	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin cleanup transaction: %w", err)
	}

	deleted, err := idx.db.DeleteMissingFiles(tx, indexTime)
	if err != nil {
		if endErr := idx.db.EndBatch(tx, err); endErr != nil {
			logging.Error("failed to end batch after cleanup error: %v", endErr)
		}
		return err
	}

	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit cleanup: %w", err)
	}

	if deleted > 0 {
		logging.Info("Removed %d missing files from index", deleted)
	}

	// Reclaim space after a large purge
	if deleted >= vacuumThreshold {
		if err := idx.db.Vacuum(); err != nil {
			logging.Warn("Vacuum after cleanup failed: %v", err)
		}
	}

	return nil
}

func (idx *Indexer) periodicIndex() {
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic re-index triggered")
			if err := idx.Index(); err != nil {
				logging.Error("periodic re-index failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}
