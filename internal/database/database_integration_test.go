package database

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"photo-index/internal/filter"
)

// Integration tests for database operations with a real SQLite database

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t testing.TB) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// seedFile inserts one file and returns its id.
func seedFile(t *testing.T, db *Database, file IndexedFile) int64 {
	t.Helper()

	if file.ModTime.IsZero() {
		file.ModTime = time.Now()
	}
	if file.Dir == "" {
		file.Dir = filepath.Dir(file.Path)
	}
	if file.Name == "" {
		file.Name = filepath.Base(file.Path)
	}

	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	err = db.UpsertFile(tx, &file)
	if endErr := db.EndBatch(tx, err); endErr != nil {
		t.Fatalf("seeding file %s: %v", file.Path, endErr)
	}

	stored, err := db.GetFileByPath(context.Background(), file.Path)
	if err != nil {
		t.Fatalf("reading back seeded file: %v", err)
	}
	return stored.ID
}

func TestNewCreatesSchema(t *testing.T) {
	db := setupTestDB(t)

	count, err := db.CountFiles(context.Background())
	if err != nil {
		t.Fatalf("CountFiles on fresh database: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh database has %d files, want 0", count)
	}
}

func TestUpsertFileInsertAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lat, lon := 48.8584, 2.2945
	id := seedFile(t, db, IndexedFile{
		Path:    "/photos/2023/paris.jpg",
		Size:    1024,
		TakenAt: "2023-03-05T23:30:00-05:00",
		Lat:     &lat,
		Lon:     &lon,
		Country: "France",
		City:    "Paris",
	})

	got, err := db.GetFileByID(ctx, id)
	if err != nil {
		t.Fatalf("GetFileByID: %v", err)
	}
	if got.Name != "paris.jpg" || got.Country != "France" || got.City != "Paris" {
		t.Errorf("unexpected file: %+v", got)
	}
	if got.Lat == nil || *got.Lat != lat {
		t.Errorf("lat = %v, want %v", got.Lat, lat)
	}

	// Upsert same path with new size keeps the id
	id2 := seedFile(t, db, IndexedFile{
		Path: "/photos/2023/paris.jpg",
		Size: 2048,
	})
	if id2 != id {
		t.Errorf("upsert created new id %d, want %d", id2, id)
	}
	got, err = db.GetFileByID(ctx, id)
	if err != nil {
		t.Fatalf("GetFileByID after update: %v", err)
	}
	if got.Size != 2048 {
		t.Errorf("size = %d, want 2048", got.Size)
	}
}

func TestDeleteMissingFiles(t *testing.T) {
	db := setupTestDB(t)

	seedFile(t, db, IndexedFile{Path: "/photos/old.jpg"})

	// Everything updated before the future cutoff counts as missing
	cutoff := time.Now().Add(time.Hour)
	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	deleted, err := db.DeleteMissingFiles(tx, cutoff)
	if endErr := db.EndBatch(tx, err); endErr != nil {
		t.Fatalf("DeleteMissingFiles: %v", endErr)
	}
	if deleted != 1 {
		t.Errorf("deleted %d files, want 1", deleted)
	}

	count, err := db.CountFiles(context.Background())
	if err != nil {
		t.Fatalf("CountFiles: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d after cleanup, want 0", count)
	}
}

func TestTagAssignmentLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	fileID := seedFile(t, db, IndexedFile{Path: "/photos/cat.jpg"})

	if err := db.AddTagToFile(ctx, fileID, "animals"); err != nil {
		t.Fatalf("AddTagToFile: %v", err)
	}
	if err := db.AddTagToFile(ctx, fileID, "cats"); err != nil {
		t.Fatalf("AddTagToFile: %v", err)
	}
	// Duplicate add is a no-op
	if err := db.AddTagToFile(ctx, fileID, "cats"); err != nil {
		t.Fatalf("duplicate AddTagToFile: %v", err)
	}

	tags, err := db.GetFileTags(ctx, fileID)
	if err != nil {
		t.Fatalf("GetFileTags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "animals" || tags[1] != "cats" {
		t.Errorf("tags = %v, want [animals cats]", tags)
	}

	if err := db.RemoveTagFromFile(ctx, fileID, "animals"); err != nil {
		t.Fatalf("RemoveTagFromFile: %v", err)
	}
	tags, _ = db.GetFileTags(ctx, fileID)
	if len(tags) != 1 || tags[0] != "cats" {
		t.Errorf("tags after remove = %v, want [cats]", tags)
	}

	if err := db.SetFileTags(ctx, fileID, []string{"pets", "favorites"}); err != nil {
		t.Fatalf("SetFileTags: %v", err)
	}
	tags, _ = db.GetFileTags(ctx, fileID)
	if len(tags) != 2 || tags[0] != "favorites" || tags[1] != "pets" {
		t.Errorf("tags after set = %v, want [favorites pets]", tags)
	}
}

func TestGetAllTagsWithCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})

	mustTag(t, db, f1, "beach")
	mustTag(t, db, f2, "beach")
	mustTag(t, db, f2, "sunset")

	tags, err := db.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("GetAllTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	byName := map[string]int{}
	for _, tag := range tags {
		byName[tag.Name] = tag.ItemCount
	}
	if byName["beach"] != 2 || byName["sunset"] != 1 {
		t.Errorf("counts = %v, want beach=2 sunset=1", byName)
	}
}

func TestRenameAndDeleteTag(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	fileID := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	mustTag(t, db, fileID, "holday")

	if err := db.RenameTag(ctx, "holday", "holiday"); err != nil {
		t.Fatalf("RenameTag: %v", err)
	}
	tags, _ := db.GetFileTags(ctx, fileID)
	if len(tags) != 1 || tags[0] != "holiday" {
		t.Errorf("tags after rename = %v, want [holiday]", tags)
	}

	if err := db.RenameTag(ctx, "nope", "other"); err == nil {
		t.Error("renaming a missing tag should fail")
	}

	count, err := db.DeleteTag(ctx, "holiday")
	if err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if count != 1 {
		t.Errorf("DeleteTag affected %d files, want 1", count)
	}
	tags, _ = db.GetFileTags(ctx, fileID)
	if len(tags) != 0 {
		t.Errorf("tags after delete = %v, want none", tags)
	}

	if _, err := db.DeleteTag(ctx, "holiday"); err == nil {
		t.Error("deleting a missing tag should fail")
	}
}

func TestRenameTagMergesIntoExisting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})

	mustTag(t, db, f1, "vacation")
	mustTag(t, db, f2, "holiday")
	mustTag(t, db, f2, "vacation")

	// Renaming onto an existing tag merges the assignments
	if err := db.RenameTag(ctx, "holiday", "vacation"); err != nil {
		t.Fatalf("RenameTag merge: %v", err)
	}

	tags, err := db.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("GetAllTags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "vacation" || tags[0].ItemCount != 2 {
		t.Errorf("tags after merge = %+v, want one vacation tag on 2 files", tags)
	}

	f2Tags, _ := db.GetFileTags(ctx, f2)
	if len(f2Tags) != 1 || f2Tags[0] != "vacation" {
		t.Errorf("file 2 tags = %v, want [vacation]", f2Tags)
	}
}

func TestFilesMeta(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lat, lon := 43.65, -79.38
	id1 := seedFile(t, db, IndexedFile{
		Path:    "/photos/a.jpg",
		TakenAt: "2022-06-01",
		Lat:     &lat,
		Lon:     &lon,
	})
	id2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg", City: "Toronto"})

	metas, err := db.FilesMeta(ctx, []int64{id1, id2, 9999})
	if err != nil {
		t.Fatalf("FilesMeta: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("got %d metas, want 2 (unknown id omitted)", len(metas))
	}

	byID := map[int64]int{}
	for i, m := range metas {
		byID[m.ID] = i
	}
	m1 := metas[byID[id1]]
	if m1.TakenAt != "2022-06-01" || m1.Lat == nil || *m1.Lat != lat {
		t.Errorf("meta 1 = %+v", m1)
	}
	m2 := metas[byID[id2]]
	if m2.City != "Toronto" || m2.Lat != nil {
		t.Errorf("meta 2 = %+v", m2)
	}
}

// chainOf builds a chain over numeric tag ids.
func chainOf(startMode filter.Mode, startTags []int64, links ...filter.Link) filter.Chain {
	return filter.Chain{
		Start: nodeOf("start", startMode, startTags),
		Links: links,
	}
}

func nodeOf(id string, mode filter.Mode, tagIDs []int64) filter.Node {
	strIDs := make([]string, len(tagIDs))
	for i, tagID := range tagIDs {
		strIDs[i] = strconv.FormatInt(tagID, 10)
	}
	return filter.Node{ID: id, Mode: mode, TagIDs: strIDs}
}

func mustTag(t *testing.T, db *Database, fileID int64, tagName string) {
	t.Helper()
	if err := db.AddTagToFile(context.Background(), fileID, tagName); err != nil {
		t.Fatalf("tagging file %d with %q: %v", fileID, tagName, err)
	}
}

func tagID(t *testing.T, db *Database, name string) int64 {
	t.Helper()
	tag, err := db.GetOrCreateTag(context.Background(), name)
	if err != nil {
		t.Fatalf("GetOrCreateTag(%q): %v", name, err)
	}
	return tag.ID
}

func TestSearchFilesFiltersBySingleNode(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})
	seedFile(t, db, IndexedFile{Path: "/photos/c.jpg"})

	mustTag(t, db, f1, "beach")
	mustTag(t, db, f2, "beach")
	beach := tagID(t, db, "beach")

	result, err := db.SearchFiles(ctx, chainOf(filter.ModeAny, []int64{beach}), SearchOptions{SortBy: SortID, SortDir: "asc"})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if result.TotalItems != 2 || len(result.Items) != 2 {
		t.Fatalf("got %d/%d results, want 2/2", len(result.Items), result.TotalItems)
	}
	if result.Items[0].ID != f1 || result.Items[1].ID != f2 {
		t.Errorf("result ids = %d,%d want %d,%d", result.Items[0].ID, result.Items[1].ID, f1, f2)
	}
	if len(result.Items[0].Tags) != 1 || result.Items[0].Tags[0] != "beach" {
		t.Errorf("result tags = %v, want [beach]", result.Items[0].Tags)
	}
}

func TestSearchFilesAllModeRequiresEveryTag(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})

	mustTag(t, db, f1, "beach")
	mustTag(t, db, f1, "sunset")
	mustTag(t, db, f2, "beach")

	beach := tagID(t, db, "beach")
	sunset := tagID(t, db, "sunset")

	result, err := db.SearchFiles(ctx, chainOf(filter.ModeAll, []int64{beach, sunset}), SearchOptions{})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if result.TotalItems != 1 || result.Items[0].ID != f1 {
		t.Errorf("all-mode selection = %+v, want only file %d", result.Items, f1)
	}
}

func TestSearchFilesConnectorsFoldLeftToRight(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})
	f3 := seedFile(t, db, IndexedFile{Path: "/photos/c.jpg"})

	mustTag(t, db, f1, "red")
	mustTag(t, db, f2, "blue")
	mustTag(t, db, f3, "red")
	mustTag(t, db, f3, "green")

	red := tagID(t, db, "red")
	blue := tagID(t, db, "blue")
	green := tagID(t, db, "green")

	// (red or blue) and-not green selects f1 and f2 but not f3
	chain := chainOf(filter.ModeAny, []int64{red},
		filter.Link{Connector: filter.ConnectorOr, Node: nodeOf("n1", filter.ModeAny, []int64{blue})},
		filter.Link{Connector: filter.ConnectorAndNot, Node: nodeOf("n2", filter.ModeAny, []int64{green})},
	)

	result, err := db.SearchFiles(ctx, chain, SearchOptions{SortBy: SortID, SortDir: "asc"})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if result.TotalItems != 2 {
		t.Fatalf("total = %d, want 2", result.TotalItems)
	}
	if result.Items[0].ID != f1 || result.Items[1].ID != f2 {
		t.Errorf("ids = %d,%d want %d,%d", result.Items[0].ID, result.Items[1].ID, f1, f2)
	}
}

func TestSearchFilesEmptyNodeSelectsNothing(t *testing.T) {
	db := setupTestDB(t)

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	mustTag(t, db, f1, "beach")

	result, err := db.SearchFiles(context.Background(),
		filter.Chain{Start: filter.Node{ID: "start", Mode: filter.ModeAny, TagIDs: nil}},
		SearchOptions{})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if result.TotalItems != 0 || len(result.Items) != 0 {
		t.Errorf("empty node selected %d files, want 0", result.TotalItems)
	}
}

func TestSearchFilesPagingAndSorting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id := seedFile(t, db, IndexedFile{
			Path:    "/photos/" + strconv.Itoa(i) + ".jpg",
			TakenAt: "2023-01-0" + strconv.Itoa(i+1),
			Size:    int64(100 * (i + 1)),
		})
		mustTag(t, db, id, "all")
		ids = append(ids, id)
	}
	all := tagID(t, db, "all")
	chain := chainOf(filter.ModeAny, []int64{all})

	// Newest first by default
	result, err := db.SearchFiles(ctx, chain, SearchOptions{Limit: 2})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if result.TotalItems != 5 || len(result.Items) != 2 {
		t.Fatalf("page = %d/%d, want 2 of 5", len(result.Items), result.TotalItems)
	}
	if result.Items[0].ID != ids[4] {
		t.Errorf("first item = %d, want newest %d", result.Items[0].ID, ids[4])
	}

	// Second page, ascending by size
	result, err = db.SearchFiles(ctx, chain, SearchOptions{SortBy: SortSize, SortDir: "asc", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if len(result.Items) != 2 || result.Items[0].Size != 300 {
		t.Errorf("offset page starts at size %d, want 300", result.Items[0].Size)
	}

	// Unknown sort field falls back instead of failing
	if _, err := db.SearchFiles(ctx, chain, SearchOptions{SortBy: "evil; DROP TABLE files"}); err != nil {
		t.Errorf("unknown sort field should fall back, got error: %v", err)
	}
}

func TestAggregateSelection(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})
	f3 := seedFile(t, db, IndexedFile{Path: "/photos/c.jpg"})

	mustTag(t, db, f1, "beach")
	mustTag(t, db, f1, "sunset")
	mustTag(t, db, f2, "beach")
	mustTag(t, db, f3, "mountain")

	beach := tagID(t, db, "beach")

	counts, err := db.AggregateSelection(ctx, chainOf(filter.ModeAny, []int64{beach}))
	if err != nil {
		t.Fatalf("AggregateSelection: %v", err)
	}

	byName := map[string]int{}
	for _, c := range counts {
		byName[c.Name] = c.Count
	}
	// Only tags on selected files appear
	if byName["beach"] != 2 || byName["sunset"] != 1 {
		t.Errorf("counts = %v, want beach=2 sunset=1", byName)
	}
	if _, ok := byName["mountain"]; ok {
		t.Error("mountain is outside the selection and should be absent")
	}
}

func TestAggregateSelectionMultiNodeChain(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})
	f3 := seedFile(t, db, IndexedFile{Path: "/photos/c.jpg"})

	mustTag(t, db, f1, "beach")
	mustTag(t, db, f1, "sunset")
	mustTag(t, db, f2, "beach")
	mustTag(t, db, f3, "mountain")

	beach := tagID(t, db, "beach")
	mountain := tagID(t, db, "mountain")
	sunset := tagID(t, db, "sunset")

	// (beach or mountain) and-not sunset selects f2 and f3.
	chain := chainOf(filter.ModeAny, []int64{beach},
		filter.Link{Connector: filter.ConnectorOr, Node: nodeOf("n1", filter.ModeAny, []int64{mountain})},
		filter.Link{Connector: filter.ConnectorAndNot, Node: nodeOf("n2", filter.ModeAny, []int64{sunset})},
	)
	counts, err := db.AggregateSelection(ctx, chain)
	if err != nil {
		t.Fatalf("AggregateSelection: %v", err)
	}

	want := []TagCount{
		{TagID: beach, Name: "beach", Count: 1},
		{TagID: mountain, Name: "mountain", Count: 1},
	}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	// Ties on count order by name, case-insensitively.
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %v, want %v", i, counts[i], want[i])
		}
	}
}

func TestAggregateSource(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/2023/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/2023/trip/b.jpg"})
	f3 := seedFile(t, db, IndexedFile{Path: "/photos/2022/c.jpg"})

	mustTag(t, db, f1, "beach")
	mustTag(t, db, f2, "beach")
	mustTag(t, db, f3, "beach")
	mustTag(t, db, f3, "winter")

	counts, err := db.AggregateSource(ctx, "/photos/2023")
	if err != nil {
		t.Fatalf("AggregateSource: %v", err)
	}
	byName := map[string]int{}
	for _, c := range counts {
		byName[c.Name] = c.Count
	}
	// Prefix covers the directory and its subdirectories
	if byName["beach"] != 2 {
		t.Errorf("beach count = %d, want 2", byName["beach"])
	}
	if _, ok := byName["winter"]; ok {
		t.Error("winter belongs to 2022 and should be absent")
	}

	// Sibling prefix match must not leak: /photos/2023x is not under /photos/2023
	f4 := seedFile(t, db, IndexedFile{Path: "/photos/2023x/d.jpg"})
	mustTag(t, db, f4, "leak")
	counts, err = db.AggregateSource(ctx, "/photos/2023")
	if err != nil {
		t.Fatalf("AggregateSource: %v", err)
	}
	for _, c := range counts {
		if c.Name == "leak" {
			t.Error("sibling directory leaked into prefix scope")
		}
	}
}

func TestLoadTagMembership(t *testing.T) {
	db := setupTestDB(t)

	f1 := seedFile(t, db, IndexedFile{Path: "/photos/a.jpg"})
	f2 := seedFile(t, db, IndexedFile{Path: "/photos/b.jpg"})
	mustTag(t, db, f1, "beach")
	mustTag(t, db, f2, "beach")
	mustTag(t, db, f2, "sunset")
	beach := tagID(t, db, "beach")
	sunset := tagID(t, db, "sunset")

	membership, err := db.LoadTagMembership(context.Background())
	if err != nil {
		t.Fatalf("LoadTagMembership: %v", err)
	}

	// The relation is keyed by file id, matching what Evaluate consumes.
	if len(membership[f1]) != 1 {
		t.Errorf("file %d carries %d tags, want 1", f1, len(membership[f1]))
	}
	if len(membership[f2]) != 2 {
		t.Errorf("file %d carries %d tags, want 2", f2, len(membership[f2]))
	}
	if _, ok := membership[f2][sunset]; !ok {
		t.Errorf("file %d missing tag %d in membership", f2, sunset)
	}

	got := filter.Evaluate(membership, chainOf(filter.ModeAny, []int64{beach}))
	if len(got) != 2 {
		t.Errorf("Evaluate over loaded membership = %d files, want 2", len(got))
	}
	if _, ok := got[f1]; !ok {
		t.Errorf("file %d missing from evaluated beach selection", f1)
	}
}
