package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authentity "linker/internal/feature/auth/domain/entity"
	"linker/internal/feature/profile/domain/entity"
	"linker/internal/feature/profile/usecase"
	"linker/internal/platform/storage"
)

// mockUserRepository はUserRepositoryインターフェースのモック実装です。
type mockUserRepository struct {
	FindByIDFunc                func(ctx context.Context, id uint) (*authentity.User, error)
	UpdateProfilePictureKeyFunc func(ctx context.Context, id uint, key string) error
	UpdateBannerPictureKeyFunc  func(ctx context.Context, id uint, key string) error
	UpdateBioFunc               func(ctx context.Context, id uint, bio string) error
	UpdateCalls                 int
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*authentity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, errors.New("FindByIDFunc is not implemented")
}

func (m *mockUserRepository) UpdateProfilePictureKey(ctx context.Context, id uint, key string) error {
	m.UpdateCalls++
	if m.UpdateProfilePictureKeyFunc != nil {
		return m.UpdateProfilePictureKeyFunc(ctx, id, key)
	}
	return errors.New("UpdateProfilePictureKeyFunc is not implemented")
}

func (m *mockUserRepository) UpdateBannerPictureKey(ctx context.Context, id uint, key string) error {
	m.UpdateCalls++
	if m.UpdateBannerPictureKeyFunc != nil {
		return m.UpdateBannerPictureKeyFunc(ctx, id, key)
	}
	return errors.New("UpdateBannerPictureKeyFunc is not implemented")
}

func (m *mockUserRepository) UpdateBio(ctx context.Context, id uint, bio string) error {
	if m.UpdateBioFunc != nil {
		return m.UpdateBioFunc(ctx, id, bio)
	}
	return errors.New("UpdateBioFunc is not implemented")
}

// memoryObjectStore はObjectStoreのメモリ実装です。
type memoryObjectStore struct {
	mu         sync.Mutex
	objects    map[string]*storage.Object
	ensureErr  error
	putErr     error
	presignErr error
	ensured    int
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: map[string]*storage.Object{}}
}

func (s *memoryObjectStore) EnsureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured++
	return s.ensureErr
}

func (s *memoryObjectStore) PutObject(ctx context.Context, key string, payload []byte, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = &storage.Object{Key: key, Data: append([]byte(nil), payload...), ContentType: contentType}
	return nil
}

func (s *memoryObjectStore) GetObject(ctx context.Context, key string) (*storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return obj, nil
}

func (s *memoryObjectStore) PresignGet(ctx context.Context, key string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://objects.test/" + key, nil
}

func ptr(s string) *string { return &s }

func anaUser(key *string) *authentity.User {
	return &authentity.User{ID: 7, Name: "Ana", Email: "ana@x.io", PasswordHash: "h", ProfilePictureKey: key}
}

var pngPicture = entity.Picture{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"}

func TestProfileUsecase_GetProfile(t *testing.T) {
	t.Parallel()

	t.Run("without picture", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
			return anaUser(nil), nil
		}}
		uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

		p, err := uc.GetProfile(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, &entity.Profile{ID: 7, Name: "Ana", Email: "ana@x.io"}, p)
	})

	t.Run("with picture gets presigned url", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
			return anaUser(ptr("k1")), nil
		}}
		uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

		p, err := uc.GetProfile(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "k1", p.ProfilePictureKey)
		assert.Equal(t, "https://objects.test/k1", p.ProfilePictureURL)
	})

	t.Run("presign failure still returns the profile", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
			return anaUser(ptr("k1")), nil
		}}
		objects := newMemoryObjectStore()
		objects.presignErr = storage.ErrStorageUnavailable
		uc := usecase.NewProfileUsecase(users, objects)

		p, err := uc.GetProfile(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "k1", p.ProfilePictureKey)
		assert.Empty(t, p.ProfilePictureURL)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
			return nil, usecase.ErrUserNotFound
		}}
		uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

		_, err := uc.GetProfile(context.Background(), 99)
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})
}

func TestProfileUsecase_UpdateProfilePicture(t *testing.T) {
	t.Parallel()

	t.Run("stores object then records key", func(t *testing.T) {
		t.Parallel()

		var recorded string
		objects := newMemoryObjectStore()
		users := &mockUserRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
				return anaUser(nil), nil
			},
			UpdateProfilePictureKeyFunc: func(ctx context.Context, id uint, key string) error {
				// キーを記録する時点でオブジェクトは既に存在する
				_, err := objects.GetObject(ctx, key)
				require.NoError(t, err)
				recorded = key
				return nil
			},
		}
		uc := usecase.NewProfileUsecase(users, objects)

		key, err := uc.UpdateProfilePicture(context.Background(), 7, pngPicture)
		require.NoError(t, err)

		_, parseErr := uuid.Parse(key)
		assert.NoError(t, parseErr)
		assert.Equal(t, key, recorded)
		assert.Equal(t, 1, objects.ensured)

		obj, err := objects.GetObject(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, pngPicture.Data, obj.Data)
		assert.Equal(t, "image/png", obj.ContentType)
	})

	t.Run("each upload gets a fresh key", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) { return anaUser(nil), nil },
			UpdateProfilePictureKeyFunc: func(ctx context.Context, id uint, key string) error {
				return nil
			},
		}
		objects := newMemoryObjectStore()
		uc := usecase.NewProfileUsecase(users, objects)

		k1, err := uc.UpdateProfilePicture(context.Background(), 7, pngPicture)
		require.NoError(t, err)
		k2, err := uc.UpdateProfilePicture(context.Background(), 7, pngPicture)
		require.NoError(t, err)

		assert.NotEqual(t, k1, k2)
		assert.Len(t, objects.objects, 2, "replaced objects are kept")
	})

	tests := []struct {
		name        string
		picture     entity.Picture
		findErr     error
		ensureErr   error
		putErr      error
		updateErr   error
		wantErr     error
		wantUpdates int
	}{
		{name: "invalid picture", picture: entity.Picture{Data: []byte("x"), ContentType: "text/plain"}, wantErr: entity.ErrInvalidPicture},
		{name: "empty picture", picture: entity.Picture{ContentType: "image/png"}, wantErr: entity.ErrInvalidPicture},
		{name: "user gone", picture: pngPicture, findErr: usecase.ErrUserNotFound, wantErr: usecase.ErrUserNotFound},
		{name: "bucket unavailable", picture: pngPicture, ensureErr: storage.ErrStorageUnavailable, wantErr: usecase.ErrStorageUnavailable},
		{name: "put unavailable", picture: pngPicture, putErr: storage.ErrStorageUnavailable, wantErr: usecase.ErrStorageUnavailable},
		{name: "db down after store", picture: pngPicture, updateErr: usecase.ErrDatabaseUnavailable, wantErr: usecase.ErrDatabaseUnavailable, wantUpdates: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := &mockUserRepository{
				FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
					if tt.findErr != nil {
						return nil, tt.findErr
					}
					return anaUser(ptr("old")), nil
				},
				UpdateProfilePictureKeyFunc: func(ctx context.Context, id uint, key string) error {
					return tt.updateErr
				},
			}
			objects := newMemoryObjectStore()
			objects.ensureErr = tt.ensureErr
			objects.putErr = tt.putErr
			uc := usecase.NewProfileUsecase(users, objects)

			key, err := uc.UpdateProfilePicture(context.Background(), 7, tt.picture)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, key)
			assert.Equal(t, tt.wantUpdates, users.UpdateCalls, "the pointer is only written after a successful store")
		})
	}
}

func TestProfileUsecase_GetProfilePicture(t *testing.T) {
	t.Parallel()

	objects := newMemoryObjectStore()
	require.NoError(t, objects.PutObject(context.Background(), "k1", []byte("gif"), "image/gif"))

	tests := []struct {
		name    string
		user    *authentity.User
		findErr error
		wantErr error
	}{
		{name: "returns stored bytes", user: anaUser(ptr("k1"))},
		{name: "no picture set", user: anaUser(nil), wantErr: usecase.ErrNoPicture},
		{name: "key points at missing object", user: anaUser(ptr("gone")), wantErr: usecase.ErrNoPicture},
		{name: "user gone", findErr: usecase.ErrUserNotFound, wantErr: usecase.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := &mockUserRepository{FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
				return tt.user, tt.findErr
			}}
			uc := usecase.NewProfileUsecase(users, objects)

			pic, err := uc.GetProfilePicture(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pic)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []byte("gif"), pic.Data)
			assert.Equal(t, "image/gif", pic.ContentType)
			assert.Equal(t, "k1", pic.Key)
		})
	}
}

func TestProfileUsecase_GetProfile_WithBannerAndBio(t *testing.T) {
	t.Parallel()

	users := &mockUserRepository{FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
		u := anaUser(nil)
		u.BannerPictureKey = ptr("b1")
		u.Bio = "hello"
		return u, nil
	}}
	uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

	p, err := uc.GetProfile(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "hello", p.Bio)
	assert.Equal(t, "b1", p.BannerPictureKey)
	assert.Equal(t, "https://objects.test/b1", p.BannerPictureURL)
	assert.Empty(t, p.ProfilePictureKey)
	assert.Empty(t, p.ProfilePictureURL)
}

func TestProfileUsecase_UpdatePicture_Banner(t *testing.T) {
	t.Parallel()

	t.Run("records the banner key only", func(t *testing.T) {
		t.Parallel()

		objects := newMemoryObjectStore()
		var banner string
		users := &mockUserRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) { return anaUser(ptr("avatar")), nil },
			UpdateBannerPictureKeyFunc: func(ctx context.Context, id uint, key string) error {
				_, err := objects.GetObject(ctx, key)
				require.NoError(t, err, "object is stored before the pointer moves")
				banner = key
				return nil
			},
		}
		uc := usecase.NewProfileUsecase(users, objects)

		key, err := uc.UpdatePicture(context.Background(), 7, entity.KindBanner, pngPicture)

		require.NoError(t, err)
		assert.Equal(t, key, banner)
		assert.Equal(t, 1, users.UpdateCalls)
	})

	t.Run("storage failure leaves the banner pointer alone", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) { return anaUser(nil), nil },
		}
		objects := newMemoryObjectStore()
		objects.putErr = storage.ErrStorageUnavailable
		uc := usecase.NewProfileUsecase(users, objects)

		_, err := uc.UpdatePicture(context.Background(), 7, entity.KindBanner, pngPicture)

		assert.ErrorIs(t, err, usecase.ErrStorageUnavailable)
		assert.Zero(t, users.UpdateCalls)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{}
		uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

		_, err := uc.UpdatePicture(context.Background(), 7, entity.PictureKind("cover"), pngPicture)

		assert.ErrorIs(t, err, entity.ErrUnknownPictureKind)
		assert.Zero(t, users.UpdateCalls)
	})
}

func TestProfileUsecase_GetPicture_Banner(t *testing.T) {
	t.Parallel()

	objects := newMemoryObjectStore()
	require.NoError(t, objects.PutObject(context.Background(), "b1", []byte("banner"), "image/webp"))

	users := &mockUserRepository{FindByIDFunc: func(ctx context.Context, id uint) (*authentity.User, error) {
		u := anaUser(ptr("avatar"))
		u.BannerPictureKey = ptr("b1")
		return u, nil
	}}
	uc := usecase.NewProfileUsecase(users, objects)

	pic, err := uc.GetPicture(context.Background(), 7, entity.KindBanner)
	require.NoError(t, err)
	assert.Equal(t, []byte("banner"), pic.Data)
	assert.Equal(t, "image/webp", pic.ContentType)

	// avatarのオブジェクトは存在しない
	_, err = uc.GetPicture(context.Background(), 7, entity.KindProfile)
	assert.ErrorIs(t, err, usecase.ErrNoPicture)
}

func TestProfileUsecase_UpdateBio(t *testing.T) {
	t.Parallel()

	t.Run("stores the bio", func(t *testing.T) {
		t.Parallel()

		var got string
		users := &mockUserRepository{UpdateBioFunc: func(ctx context.Context, id uint, bio string) error {
			got = bio
			return nil
		}}
		uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

		require.NoError(t, uc.UpdateBio(context.Background(), 7, "Backend dev"))
		assert.Equal(t, "Backend dev", got)
	})

	t.Run("too long never reaches the store", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{UpdateBioFunc: func(ctx context.Context, id uint, bio string) error {
			t.Fatal("UpdateBio must not be called")
			return nil
		}}
		uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

		err := uc.UpdateBio(context.Background(), 7, strings.Repeat("x", entity.MaxBioLength+1))
		assert.ErrorIs(t, err, entity.ErrInvalidBio)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		users := &mockUserRepository{UpdateBioFunc: func(ctx context.Context, id uint, bio string) error {
			return usecase.ErrUserNotFound
		}}
		uc := usecase.NewProfileUsecase(users, newMemoryObjectStore())

		assert.ErrorIs(t, uc.UpdateBio(context.Background(), 7, ""), usecase.ErrUserNotFound)
	})
}
