package metrics

import (
	"os"
	"time"

	"photo-index/internal/logging"
)

// StatsProvider supplies current library statistics.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics.
type Stats struct {
	TotalFiles      int
	TotalTags       int
	GeoCacheEntries int
	DBConnections   int
}

// Collector periodically collects and updates library gauges.
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty to skip
// database file-size collection.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryFilesTotal.Set(float64(stats.TotalFiles))
	LibraryTagsTotal.Set(float64(stats.TotalTags))
	LibraryGeoCacheEntries.Set(float64(stats.GeoCacheEntries))
	DBConnectionsOpen.Set(float64(stats.DBConnections))

	c.collectDBSizes()

	logging.Debug("Metrics collected: files=%d, tags=%d, geocache=%d",
		stats.TotalFiles, stats.TotalTags, stats.GeoCacheEntries)
}

func (c *Collector) collectDBSizes() {
	if c.dbPath == "" {
		return
	}
	for label, suffix := range map[string]string{"main": "", "wal": "-wal", "shm": "-shm"} {
		info, err := os.Stat(c.dbPath + suffix)
		if err != nil {
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}
