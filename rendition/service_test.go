package rendition

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"imagegallery/models"
	"imagegallery/store"
)

type mockGetter struct {
	mock.Mock
}

func (m *mockGetter) GetByID(ctx context.Context, id string) (*models.ImageRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*models.ImageRecord)
	return rec, args.Error(1)
}

func TestService_Render(t *testing.T) {
	getter := new(mockGetter)
	getter.On("GetByID", mock.Anything, "img_1_aaaaaaa").Return(&models.ImageRecord{
		ID:           "img_1_aaaaaaa",
		OriginalName: "sunset.jpg",
		Buffer:       encodeTestPNG(t, 100, 100),
	}, nil)

	svc := NewService(getter)
	r, err := svc.Render(context.Background(), "img_1_aaaaaaa", "svg", 128)
	require.NoError(t, err)
	assert.Equal(t, "sunset_128px.svg", r.Filename)
	assert.Equal(t, "image/svg+xml", r.ContentType)
	assert.Equal(t, 128, r.Width)
	assert.Equal(t, 128, r.Height)
	assert.Equal(t, FormatSVG, r.Format)

	r, err = svc.Render(context.Background(), "img_1_aaaaaaa", "ico", 1024)
	require.NoError(t, err)
	assert.Equal(t, "sunset_1024px.png", r.Filename, "filename keeps the requested size")
	assert.Equal(t, 256, r.Width)
	assert.True(t, r.Substituted)
}

func TestService_RenderErrors(t *testing.T) {
	getter := new(mockGetter)
	getter.On("GetByID", mock.Anything, "img_0_missing").Return(nil, store.ErrNotFound)
	getter.On("GetByID", mock.Anything, "img_2_garbage").Return(&models.ImageRecord{
		ID:     "img_2_garbage",
		Buffer: []byte("definitely not pixels"),
	}, nil)
	svc := NewService(getter)
	ctx := context.Background()

	_, err := svc.Render(ctx, "img_0_missing", "png", 64)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Render(ctx, "", "png", 64)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Render(ctx, "img_2_garbage", "png", 64)
	assert.ErrorIs(t, err, ErrProcessingFailed)

	_, err = svc.Render(ctx, "img_0_missing", "png", 999)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = svc.Render(ctx, "img_0_missing", "jpeg", 64)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	getter.AssertNumberOfCalls(t, "GetByID", 2)
}

type blockingGetter struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	data    []byte
}

func (g *blockingGetter) GetByID(ctx context.Context, id string) (*models.ImageRecord, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
	}
	<-g.release
	return &models.ImageRecord{ID: id, OriginalName: "a.png", Buffer: g.data}, nil
}

func TestService_CoalescesIdenticalRenders(t *testing.T) {
	g := &blockingGetter{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		data:    encodeTestPNG(t, 50, 50),
	}
	svc := NewService(g)
	ctx := context.Background()

	const callers = 4
	results := make([]*Rendition, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = svc.Render(ctx, "img_1_aaaaaaa", "png", 64)
	}()
	<-g.entered

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Render(ctx, "img_1_aaaaaaa", "png", 64)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(g.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Data, results[i].Data)
	}
	assert.LessOrEqual(t, g.calls.Load(), int32(callers))
	assert.GreaterOrEqual(t, g.calls.Load(), int32(1))
}

func TestService_CallerCancellation(t *testing.T) {
	g := &blockingGetter{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		data:    encodeTestPNG(t, 50, 50),
	}
	defer close(g.release)
	svc := NewService(g)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Render(ctx, "img_1_aaaaaaa", "png", 64)
		done <- err
	}()

	<-g.entered
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Render did not return after cancellation")
	}
}
