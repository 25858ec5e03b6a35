package rendition

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"imagegallery/metrics"
	"imagegallery/models"
	"imagegallery/store"
	"imagegallery/utils"
)

// Getter loads a stored image with its payload.
type Getter interface {
	GetByID(ctx context.Context, id string) (*models.ImageRecord, error)
}

// Rendition is the result of Service.Render. It may be shared between
// concurrent callers and must not be modified.
type Rendition struct {
	Data        []byte
	ContentType string
	Filename    string
	Width       int
	Height      int
	Format      Format
	Substituted bool
}

type Service struct {
	images  Getter
	group   singleflight.Group
	log     zerolog.Logger
	metrics metrics.Recorder
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "rendition").Logger() }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func NewService(images Getter, opts ...Option) *Service {
	s := &Service{
		images:  images,
		log:     zerolog.Nop(),
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render produces the rendition of image id. format and size are checked
// before the image is looked up. Identical concurrent requests share one
// render.
func (s *Service) Render(ctx context.Context, id, format string, size int) (out *Rendition, err error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if !ValidSize(size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if id == "" {
		return nil, store.ErrNotFound
	}

	start := time.Now()
	defer func() { s.metrics.ObserveRender(string(f), time.Since(start), err) }()

	key := id + "|" + string(f) + "|" + strconv.Itoa(size)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.render(context.WithoutCancel(ctx), id, f, size)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger(ctx).Debug().Str("id", id).Str("key", key).Msg("render shared with concurrent request")
		}
		return res.Val.(*Rendition), nil
	}
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	return utils.ContextLogger(ctx, s.log, "rendition")
}

func (s *Service) render(ctx context.Context, id string, f Format, size int) (*Rendition, error) {
	rec, err := s.images.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := Process(rec.Buffer, string(f), size)
	if err != nil {
		s.logger(ctx).Warn().Err(err).Str("id", id).Str("format", string(f)).Int("size", size).Msg("render failed")
		return nil, err
	}

	return &Rendition{
		Data:        out.Data,
		ContentType: out.ContentType,
		Filename:    Filename(rec.OriginalName, size, out.Extension),
		Width:       out.Width,
		Height:      out.Height,
		Format:      out.Format,
		Substituted: out.Substituted,
	}, nil
}
