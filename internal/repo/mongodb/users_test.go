package mongodb_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/naydelinzavala7/back-login-mongo/internal/account"
	"github.com/naydelinzavala7/back-login-mongo/internal/db"
	"github.com/naydelinzavala7/back-login-mongo/internal/domain/user"
	"github.com/naydelinzavala7/back-login-mongo/internal/observability"
	"github.com/naydelinzavala7/back-login-mongo/internal/repo/mongodb"
	"github.com/naydelinzavala7/back-login-mongo/internal/repo/repotest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Runs against a real server: TEST_MONGO_URI=mongodb://127.0.0.1:27017 go test ./...
func TestUsersRepo(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	client, err := db.NewMongoClient(uri)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	prom := observability.NewProm(observability.NewRegistry())

	repotest.RunUsersStore(t, func(t *testing.T) account.Store {
		database := client.Database("users_test_" + uuid.NewString()[:8])
		t.Cleanup(func() { _ = database.Drop(context.Background()) })

		repo := mongodb.NewUsersRepo(database, prom)
		if err := repo.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("ensure indexes: %v", err)
		}
		return repo
	})

	t.Run("missing_user_is_not_a_store_error", func(t *testing.T) {
		database := client.Database("users_test_" + uuid.NewString()[:8])
		t.Cleanup(func() { _ = database.Drop(context.Background()) })

		metrics := observability.NewProm(observability.NewRegistry())
		repo := mongodb.NewUsersRepo(database, metrics)

		ctx := context.Background()

		_, err := repo.FindByEmail(ctx, "nobody@x.com")
		require.ErrorIs(t, err, user.ErrNotFound)

		_, err = repo.FindByID(ctx, primitive.NewObjectID().Hex())
		require.ErrorIs(t, err, user.ErrNotFound)

		_, err = repo.UpdateByID(ctx, primitive.NewObjectID().Hex(), user.Patch{Name: "N"})
		require.ErrorIs(t, err, user.ErrNotFound)

		require.Zero(t, testutil.CollectAndCount(metrics.DbErrorsTotal))
	})
}
