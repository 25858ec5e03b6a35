// Package tagindex builds an in-memory tag index over a snapshot of image
// records. Positions in the index are offsets into the snapshot slice, so
// iterating a match bitmap yields records in insertion order.
package tagindex

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"imagegallery/models"
)

type posting struct {
	lower     string
	positions *roaring.Bitmap
}

// Index maps each distinct tag to the records carrying it.
type Index struct {
	postings map[string]*posting
	size     int
}

// Build indexes records. The slice must not be reordered while the index
// is in use.
func Build(records []models.ImageRecord) *Index {
	ix := &Index{
		postings: make(map[string]*posting),
		size:     len(records),
	}
	for i, rec := range records {
		for _, tag := range rec.Tags {
			p, ok := ix.postings[tag]
			if !ok {
				p = &posting{lower: strings.ToLower(tag), positions: roaring.New()}
				ix.postings[tag] = p
			}
			p.positions.Add(uint32(i))
		}
	}
	return ix
}

// Len is the number of records in the indexed snapshot.
func (ix *Index) Len() int { return ix.size }

// Match returns the positions of records having at least one tag that
// contains at least one query as a case-insensitive substring.
func (ix *Index) Match(queries []string) *roaring.Bitmap {
	lowered := make([]string, len(queries))
	for i, q := range queries {
		lowered[i] = strings.ToLower(q)
	}

	var hits []*roaring.Bitmap
	for _, p := range ix.postings {
		for _, q := range lowered {
			if strings.Contains(p.lower, q) {
				hits = append(hits, p.positions)
				break
			}
		}
	}
	if len(hits) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(hits...)
}

// Tags returns every distinct tag, sorted ascending.
func (ix *Index) Tags() []string {
	tags := make([]string, 0, len(ix.postings))
	for tag := range ix.postings {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Select returns the records at the positions in bm, in position order.
func Select(records []models.ImageRecord, bm *roaring.Bitmap) []models.ImageRecord {
	out := make([]models.ImageRecord, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		pos := int(it.Next())
		if pos < len(records) {
			out = append(out, records[pos])
		}
	}
	return out
}
