// Package repotest holds the behaviour every user store must share.
package repotest

import (
	"context"
	"sync"
	"testing"

	"github.com/naydelinzavala7/back-login-mongo/internal/account"
	"github.com/naydelinzavala7/back-login-mongo/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func sample(email string) user.User {
	return user.User{
		Name:            "A",
		PaternalSurname: "B",
		MaternalSurname: "C",
		Email:           email,
		PasswordHash:    "$2a$10$notarealhashbutlongenoughxxxxxxxxxxxxxxxxxxxxxxxxxx",
	}
}

// RunUsersStore runs the store contract against a fresh, empty store per subtest.
func RunUsersStore(t *testing.T, newStore func(t *testing.T) account.Store) {
	t.Run("insert_and_find", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, err := s.Insert(ctx, sample("a@x.com"))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		require.False(t, created.CreatedAt.IsZero())

		byEmail, err := s.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, created.ID, byEmail.ID)

		byID, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", byID.Email)
		require.Equal(t, created.PasswordHash, byID.PasswordHash)
	})

	t.Run("missing_is_not_found", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.FindByEmail(ctx, "nobody@x.com")
		require.ErrorIs(t, err, user.ErrNotFound)

		_, err = s.FindByID(ctx, "not-an-id")
		require.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("duplicate_email_rejected", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Insert(ctx, sample("dup@x.com"))
		require.NoError(t, err)

		_, err = s.Insert(ctx, sample("dup@x.com"))
		require.ErrorIs(t, err, user.ErrEmailTaken)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("concurrent_duplicate_email", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Insert(ctx, sample("race@x.com"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		ok := 0
		for err := range errs {
			if err == nil {
				ok++
				continue
			}
			require.ErrorIs(t, err, user.ErrEmailTaken)
		}
		require.Equal(t, 1, ok)
	})

	t.Run("update_keeps_id_and_email", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, err := s.Insert(ctx, sample("u@x.com"))
		require.NoError(t, err)

		updated, err := s.UpdateByID(ctx, created.ID, user.Patch{
			Name:            "N",
			PaternalSurname: "P",
			MaternalSurname: "M",
			PasswordHash:    "new-hash",
		})
		require.NoError(t, err)
		require.Equal(t, created.ID, updated.ID)
		require.Equal(t, "u@x.com", updated.Email)
		require.Equal(t, "N", updated.Name)
		require.Equal(t, "new-hash", updated.PasswordHash)

		_, err = s.UpdateByID(ctx, "missing", user.Patch{Name: "x"})
		require.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("delete_removes_exactly_one", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		keep, err := s.Insert(ctx, sample("keep@x.com"))
		require.NoError(t, err)
		gone, err := s.Insert(ctx, sample("gone@x.com"))
		require.NoError(t, err)

		deleted, err := s.DeleteByID(ctx, gone.ID)
		require.NoError(t, err)
		require.True(t, deleted)

		deleted, err = s.DeleteByID(ctx, gone.ID)
		require.NoError(t, err)
		require.False(t, deleted)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Equal(t, keep.ID, all[0].ID)

		// the email is free again
		_, err = s.Insert(ctx, sample("gone@x.com"))
		require.NoError(t, err)
	})

	t.Run("list_empty", func(t *testing.T) {
		s := newStore(t)

		all, err := s.ListAll(context.Background())
		require.NoError(t, err)
		require.NotNil(t, all)
		require.Empty(t, all)
	})
}
