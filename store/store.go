// Package store is the image asset store: payload bytes in a blobstore,
// metadata in an append-only MetadataRepository.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"imagegallery/blobstore"
	"imagegallery/metrics"
	"imagegallery/models"
	"imagegallery/tagindex"
	"imagegallery/utils"
)

const (
	DefaultSearchLimit = 50
	maxIDAttempts      = 3
)

// SaveInput is what a caller provides to create an image. Filename
// defaults to OriginalName when empty.
type SaveInput struct {
	Data         []byte
	OriginalName string
	Filename     string
	Mimetype     string
	Tags         []string
}

type AssetStore struct {
	meta    MetadataRepository
	blobs   blobstore.Store
	log     zerolog.Logger
	now     func() time.Time
	metrics metrics.Recorder
}

type Option func(*AssetStore)

func WithLogger(l zerolog.Logger) Option {
	return func(s *AssetStore) { s.log = l.With().Str("component", "store").Logger() }
}

// WithClock replaces time.Now as the source of upload dates.
func WithClock(now func() time.Time) Option {
	return func(s *AssetStore) { s.now = now }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *AssetStore) { s.metrics = r }
}

func New(meta MetadataRepository, blobs blobstore.Store, opts ...Option) *AssetStore {
	s := &AssetStore{
		meta:    meta,
		blobs:   blobs,
		log:     zerolog.Nop(),
		now:     time.Now,
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the payload first and the metadata second. If the metadata
// append fails the payload stays behind as an orphan: it is unreachable
// but never served.
func (s *AssetStore) Save(ctx context.Context, in SaveInput) (id string, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("save", time.Since(start), err) }()

	if len(in.Data) == 0 {
		return "", ErrEmptyPayload
	}

	uploaded := s.now().UTC().Truncate(time.Millisecond)
	rec := models.ImageRecord{
		Filename:     in.Filename,
		OriginalName: in.OriginalName,
		Size:         int64(len(in.Data)),
		Mimetype:     in.Mimetype,
		Tags:         append([]string{}, in.Tags...),
		UploadDate:   uploaded,
	}
	if rec.Filename == "" {
		rec.Filename = in.OriginalName
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := NewID(uploaded)
		if err != nil {
			return "", fmt.Errorf("%w: generate id: %w", ErrStorageUnavailable, err)
		}

		if err := s.blobs.Put(ctx, blobName(id), in.Data); err != nil {
			if errors.Is(err, blobstore.ErrExists) {
				s.logger(ctx).Warn().Str("id", id).Int("attempt", attempt).Msg("id collision on payload, retrying")
				continue
			}
			return "", fmt.Errorf("%w: write payload: %w", ErrStorageUnavailable, err)
		}

		rec.ID = id
		if err := s.meta.Append(ctx, rec); err != nil {
			s.logger(ctx).Error().Err(err).Str("id", id).Msg("metadata append failed, payload orphaned")
			if errors.Is(err, ErrDuplicateID) {
				continue
			}
			return "", fmt.Errorf("%w: append metadata: %w", ErrStorageUnavailable, err)
		}

		s.logger(ctx).Debug().Str("id", id).Int64("size", rec.Size).Strs("tags", rec.Tags).Msg("image saved")
		return id, nil
	}
	return "", fmt.Errorf("%w: no free id after %d attempts", ErrStorageUnavailable, maxIDAttempts)
}

// GetByID returns the record with its payload attached. A missing
// metadata entry and a missing payload are both ErrNotFound.
func (s *AssetStore) GetByID(ctx context.Context, id string) (rec *models.ImageRecord, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("get", time.Since(start), err) }()

	if !validID(id) {
		return nil, ErrNotFound
	}

	meta, err := s.meta.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger(ctx).Warn().Err(err).Str("id", id).Msg("metadata unreadable, treating as empty")
		}
		return nil, ErrNotFound
	}

	data, err := s.blobs.Get(ctx, blobName(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			s.logger(ctx).Warn().Str("id", id).Msg("metadata present but payload missing")
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read payload: %w", ErrStorageUnavailable, err)
	}

	meta.Buffer = data
	return &meta, nil
}

// Search never returns an error for an unreadable collection; it is
// logged and treated as empty. The result is never nil.
func (s *AssetStore) Search(ctx context.Context, params models.SearchParams) (out []models.ImageRecord, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("search", time.Since(start), err) }()

	params = normalizeSearch(params)

	if searcher, ok := s.meta.(Searcher); ok {
		records, err := searcher.Search(ctx, params)
		if err != nil {
			s.logger(ctx).Warn().Err(err).Msg("metadata search failed, treating as empty")
			return []models.ImageRecord{}, nil
		}
		if records == nil {
			records = []models.ImageRecord{}
		}
		return records, nil
	}

	records := s.list(ctx)
	var matched []models.ImageRecord
	if len(params.Tags) > 0 {
		ix := tagindex.Build(records)
		matched = tagindex.Select(records, ix.Match(params.Tags))
	} else {
		matched = append([]models.ImageRecord(nil), records...)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UploadDate.After(matched[j].UploadDate)
	})

	if params.Offset >= len(matched) {
		return []models.ImageRecord{}, nil
	}
	end := len(matched)
	if params.Limit < end-params.Offset {
		end = params.Offset + params.Limit
	}
	return matched[params.Offset:end], nil
}

// AllTags returns every distinct tag, sorted ascending.
func (s *AssetStore) AllTags(ctx context.Context) (tags []string, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore("tags", time.Since(start), err) }()

	if lister, ok := s.meta.(TagLister); ok {
		tags, err := lister.Tags(ctx)
		if err != nil {
			s.logger(ctx).Warn().Err(err).Msg("tag listing failed, treating as empty")
			return []string{}, nil
		}
		if tags == nil {
			tags = []string{}
		}
		return tags, nil
	}

	return tagindex.Build(s.list(ctx)).Tags(), nil
}

func (s *AssetStore) list(ctx context.Context) []models.ImageRecord {
	records, err := s.meta.List(ctx)
	if err != nil {
		s.logger(ctx).Warn().Err(err).Msg("metadata unreadable, treating as empty")
		return nil
	}
	return records
}

func (s *AssetStore) logger(ctx context.Context) *zerolog.Logger {
	return utils.ContextLogger(ctx, s.log, "store")
}

func normalizeSearch(p models.SearchParams) models.SearchParams {
	if p.Limit <= 0 {
		p.Limit = DefaultSearchLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	var tags []string
	for _, t := range p.Tags {
		if strings.TrimSpace(t) != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
	return p
}
