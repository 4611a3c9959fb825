package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/auth"
	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/cache"
)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createFn      func(ctx context.Context, video *model.Video) error
	listFn        func(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error)
	getByUserIDFn func(ctx context.Context, userID uuid.UUID) ([]*model.Video, error)
	getOwnedFn    func(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error)
	updateOwnedFn func(ctx context.Context, id, ownerID uuid.UUID, patch model.VideoPatch) (*model.Video, error)
	deleteOwnedFn func(ctx context.Context, id, ownerID uuid.UUID) error
	setMediaKeyFn func(ctx context.Context, id, ownerID uuid.UUID, key string) (*model.Video, error)
}

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) List(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Video, error) {
	if m.getByUserIDFn != nil {
		return m.getByUserIDFn(ctx, userID)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error) {
	if m.getOwnedFn != nil {
		return m.getOwnedFn(ctx, id, ownerID)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch model.VideoPatch) (*model.Video, error) {
	if m.updateOwnedFn != nil {
		return m.updateOwnedFn(ctx, id, ownerID, patch)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	if m.deleteOwnedFn != nil {
		return m.deleteOwnedFn(ctx, id, ownerID)
	}
	return nil
}

func (m *mockVideoRepository) SetMediaKey(ctx context.Context, id, ownerID uuid.UUID, key string) (*model.Video, error) {
	if m.setMediaKeyFn != nil {
		return m.setMediaKeyFn(ctx, id, ownerID, key)
	}
	return &model.Video{ID: id, UserID: ownerID, MediaKey: key}, nil
}

// mockUserRepository provides a configurable mock for UserRepository.
type mockUserRepository struct {
	createFn     func(ctx context.Context, user *model.User) error
	getByEmailFn func(ctx context.Context, email string) (*model.User, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*model.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrUserNotFound
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	generatePresignedUploadURLFn   func(ctx context.Context, key string, expiry time.Duration) (string, error)
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	deleteFn                       func(ctx context.Context, key string) error
	existsFn                       func(ctx context.Context, key string) (bool, error)
}

func (m *mockObjectStorage) GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedUploadURLFn != nil {
		return m.generatePresignedUploadURLFn(ctx, key, expiry)
	}
	return "http://example.com/upload", nil
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return "http://example.com/download", nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

// mockInvalidationQueue records published tasks.
type mockInvalidationQueue struct {
	mu        sync.Mutex
	published []repository.InvalidationTask
	publishFn func(ctx context.Context, task repository.InvalidationTask) error
}

func (m *mockInvalidationQueue) PublishInvalidation(ctx context.Context, task repository.InvalidationTask) error {
	if m.publishFn != nil {
		if err := m.publishFn(ctx, task); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, task)
	return nil
}

func (m *mockInvalidationQueue) ConsumeInvalidations(ctx context.Context, handler func(task repository.InvalidationTask) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockInvalidationQueue) Close() error {
	return nil
}

func (m *mockInvalidationQueue) tasks() []repository.InvalidationTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.InvalidationTask(nil), m.published...)
}

// mockVideoService is a mock implementation of VideoService for testing.
type mockVideoService struct {
	createVideoFn     func(ctx context.Context, input CreateVideoInput) (*model.Video, error)
	listVideosFn      func(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error)
	updateVideoFn     func(ctx context.Context, input UpdateVideoInput) (*model.Video, error)
	deleteVideoFn     func(ctx context.Context, videoID, userID uuid.UUID) error
	createUploadURLFn func(ctx context.Context, input MediaUploadInput) (*MediaURLOutput, error)
	getDownloadURLFn  func(ctx context.Context, videoID, userID uuid.UUID) (*MediaURLOutput, error)
	listCount         atomic.Int32
}

func (m *mockVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	if m.createVideoFn != nil {
		return m.createVideoFn(ctx, input)
	}
	return &model.Video{ID: uuid.New(), UserID: input.UserID, Title: input.Title}, nil
}

func (m *mockVideoService) ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	m.listCount.Add(1)
	if m.listVideosFn != nil {
		return m.listVideosFn(ctx, filter)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) (*model.Video, error) {
	if m.updateVideoFn != nil {
		return m.updateVideoFn(ctx, input)
	}
	return &model.Video{ID: input.VideoID, UserID: input.UserID}, nil
}

func (m *mockVideoService) DeleteVideo(ctx context.Context, videoID, userID uuid.UUID) error {
	if m.deleteVideoFn != nil {
		return m.deleteVideoFn(ctx, videoID, userID)
	}
	return nil
}

func (m *mockVideoService) CreateUploadURL(ctx context.Context, input MediaUploadInput) (*MediaURLOutput, error) {
	if m.createUploadURLFn != nil {
		return m.createUploadURLFn(ctx, input)
	}
	return &MediaURLOutput{URL: "http://example.com/upload"}, nil
}

func (m *mockVideoService) GetDownloadURL(ctx context.Context, videoID, userID uuid.UUID) (*MediaURLOutput, error) {
	if m.getDownloadURLFn != nil {
		return m.getDownloadURLFn(ctx, videoID, userID)
	}
	return &MediaURLOutput{URL: "http://example.com/download"}, nil
}

// mockVideoListCache is a configurable VideoListCache for paths miniredis cannot reach.
type mockVideoListCache struct {
	getFn             func(ctx context.Context, key cache.Key) ([]*model.Video, bool, error)
	putFn             func(ctx context.Context, key cache.Key, videos []*model.Video, ttl time.Duration) error
	generationFn      func(ctx context.Context) (int64, error)
	putIfGenerationFn func(ctx context.Context, key cache.Key, videos []*model.Video, ttl time.Duration, gen int64) (bool, error)
	invalidateAllFn   func(ctx context.Context) error
	invalidateCount   atomic.Int32
}

func (m *mockVideoListCache) Get(ctx context.Context, key cache.Key) ([]*model.Video, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, false, nil
}

func (m *mockVideoListCache) Put(ctx context.Context, key cache.Key, videos []*model.Video, ttl time.Duration) error {
	if m.putFn != nil {
		return m.putFn(ctx, key, videos, ttl)
	}
	return nil
}

func (m *mockVideoListCache) Generation(ctx context.Context) (int64, error) {
	if m.generationFn != nil {
		return m.generationFn(ctx)
	}
	return 0, nil
}

func (m *mockVideoListCache) PutIfGeneration(ctx context.Context, key cache.Key, videos []*model.Video, ttl time.Duration, gen int64) (bool, error) {
	if m.putIfGenerationFn != nil {
		return m.putIfGenerationFn(ctx, key, videos, ttl, gen)
	}
	return true, nil
}

func (m *mockVideoListCache) InvalidateAll(ctx context.Context) error {
	m.invalidateCount.Add(1)
	if m.invalidateAllFn != nil {
		return m.invalidateAllFn(ctx)
	}
	return nil
}

// fakeHasher "hashes" by prefixing, so tests skip bcrypt's cost.
type fakeHasher struct {
	compareCount atomic.Int32
	hashErr      error
}

func (h *fakeHasher) Hash(secret string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + secret, nil
}

func (h *fakeHasher) Compare(hash, secret string) error {
	h.compareCount.Add(1)
	if !strings.HasPrefix(hash, "hashed:") || strings.TrimPrefix(hash, "hashed:") != secret {
		return auth.ErrPasswordMismatch
	}
	return nil
}

// mockTokenManager provides a configurable mock for TokenManager.
type mockTokenManager struct {
	issueFn    func(id auth.Identity) (string, error)
	validateFn func(token string) (auth.Identity, error)
}

func (m *mockTokenManager) Issue(id auth.Identity) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(id)
	}
	return "token-" + id.UserID.String(), nil
}

func (m *mockTokenManager) Validate(token string) (auth.Identity, error) {
	if m.validateFn != nil {
		return m.validateFn(token)
	}
	return auth.Identity{}, auth.ErrTokenMalformed
}
