package database

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"photo-index/internal/filter"
)

// The compiled SQL for a chain must select exactly the files the
// in-memory evaluator selects over the same tag assignments. This
// test seeds a small library, generates random chains, and compares
// both paths on each.
func TestSearchMatchesInMemoryEvaluation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping equivalence test in short mode")
	}

	db := setupTestDB(t)
	ctx := context.Background()

	const (
		numFiles  = 40
		numTags   = 6
		numChains = 200
	)

	rng := rand.New(rand.NewSource(42))

	tagNames := make([]string, numTags)
	tagIDs := make([]int64, numTags)
	for i := range tagNames {
		tagNames[i] = fmt.Sprintf("tag-%d", i)
	}

	for i := 0; i < numFiles; i++ {
		fileID := seedFile(t, db, IndexedFile{Path: fmt.Sprintf("/photos/%03d.jpg", i)})
		for _, name := range tagNames {
			if rng.Intn(3) == 0 {
				mustTag(t, db, fileID, name)
			}
		}
	}
	for i, name := range tagNames {
		tagIDs[i] = tagID(t, db, name)
	}

	membership, err := db.LoadTagMembership(ctx)
	if err != nil {
		t.Fatalf("LoadTagMembership: %v", err)
	}

	connectors := []filter.Connector{filter.ConnectorAnd, filter.ConnectorOr, filter.ConnectorAndNot}
	modes := []filter.Mode{filter.ModeAll, filter.ModeAny}

	randomNode := func(id string) filter.Node {
		n := rng.Intn(4) // 0 tags means an empty node, which selects nothing
		picked := make([]int64, 0, n)
		for _, j := range rng.Perm(numTags)[:n] {
			picked = append(picked, tagIDs[j])
		}
		return nodeOf(id, modes[rng.Intn(len(modes))], picked)
	}

	for i := 0; i < numChains; i++ {
		chain := filter.Chain{Start: randomNode("start")}
		for j := 0; j < rng.Intn(4); j++ {
			chain.Links = append(chain.Links, filter.Link{
				Connector: connectors[rng.Intn(len(connectors))],
				Node:      randomNode(fmt.Sprintf("n%d", j)),
			})
		}

		want := idsFromSet(filter.Evaluate(membership, chain))

		result, err := db.SearchFiles(ctx, chain, SearchOptions{SortBy: SortID, SortDir: "asc", Limit: MaxSearchLimit})
		if err != nil {
			t.Fatalf("chain %d: SearchFiles: %v", i, err)
		}
		got := make([]int64, 0, len(result.Items))
		for _, item := range result.Items {
			got = append(got, item.ID)
		}

		if !equalIDs(got, want) {
			t.Errorf("chain %d diverged:\n  chain: %s\n  sql:    %v\n  memory: %v",
				i, describeChain(chain), got, want)
		}
		if result.TotalItems != len(want) {
			t.Errorf("chain %d: TotalItems = %d, want %d", i, result.TotalItems, len(want))
		}
	}
}

func idsFromSet(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func describeChain(chain filter.Chain) string {
	out := nodeDesc(chain.Start)
	for _, link := range chain.Links {
		out += " " + string(link.Connector) + " " + nodeDesc(link.Node)
	}
	return out
}

func nodeDesc(node filter.Node) string {
	return "[" + string(node.Mode) + " " + strconv.Itoa(len(node.TagIDs)) + " tags: " +
		fmt.Sprint(node.TagIDs) + "]"
}
