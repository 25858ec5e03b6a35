package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"imagegallery/database"
)

// Runs against a live server; set MONGO_URI to enable.
func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := database.ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("mongo unreachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	coll := client.Database("imagegallery_test").Collection("images_" + uuid.NewString())
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })

	repo, err := NewMongoRepository(ctx, coll)
	require.NoError(t, err)
	testRepository(t, repo)
}
