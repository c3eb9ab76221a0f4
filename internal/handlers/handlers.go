package handlers

import (
	"photo-index/internal/database"
	"photo-index/internal/indexer"
	"photo-index/internal/media"
	"photo-index/internal/placeholder"
	"photo-index/internal/startup"
)

type Handlers struct {
	db        *database.Database
	indexer   *indexer.Indexer
	expander  *placeholder.Expander
	thumbGen  *media.ThumbnailGenerator
	photosDir string
}

func New(db *database.Database, idx *indexer.Indexer, expander *placeholder.Expander, config *startup.Config) *Handlers {
	return &Handlers{
		db:        db,
		indexer:   idx,
		expander:  expander,
		thumbGen:  media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled),
		photosDir: config.PhotosDir,
	}
}
