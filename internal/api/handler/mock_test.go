package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/auth"
	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/usecase"
)

// Mock VideoService

type mockVideoService struct {
	createVideoFn     func(ctx context.Context, input usecase.CreateVideoInput) (*model.Video, error)
	listVideosFn      func(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error)
	updateVideoFn     func(ctx context.Context, input usecase.UpdateVideoInput) (*model.Video, error)
	deleteVideoFn     func(ctx context.Context, videoID, userID uuid.UUID) error
	createUploadURLFn func(ctx context.Context, input usecase.MediaUploadInput) (*usecase.MediaURLOutput, error)
	getDownloadURLFn  func(ctx context.Context, videoID, userID uuid.UUID) (*usecase.MediaURLOutput, error)
}

func (m *mockVideoService) CreateVideo(ctx context.Context, input usecase.CreateVideoInput) (*model.Video, error) {
	if m.createVideoFn != nil {
		return m.createVideoFn(ctx, input)
	}
	return nil, nil
}

func (m *mockVideoService) ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	if m.listVideosFn != nil {
		return m.listVideosFn(ctx, filter)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoService) UpdateVideo(ctx context.Context, input usecase.UpdateVideoInput) (*model.Video, error) {
	if m.updateVideoFn != nil {
		return m.updateVideoFn(ctx, input)
	}
	return nil, nil
}

func (m *mockVideoService) DeleteVideo(ctx context.Context, videoID, userID uuid.UUID) error {
	if m.deleteVideoFn != nil {
		return m.deleteVideoFn(ctx, videoID, userID)
	}
	return nil
}

func (m *mockVideoService) CreateUploadURL(ctx context.Context, input usecase.MediaUploadInput) (*usecase.MediaURLOutput, error) {
	if m.createUploadURLFn != nil {
		return m.createUploadURLFn(ctx, input)
	}
	return nil, nil
}

func (m *mockVideoService) GetDownloadURL(ctx context.Context, videoID, userID uuid.UUID) (*usecase.MediaURLOutput, error) {
	if m.getDownloadURLFn != nil {
		return m.getDownloadURLFn(ctx, videoID, userID)
	}
	return nil, nil
}

// Mock AuthService

type mockAuthService struct {
	registerFn     func(ctx context.Context, input usecase.RegisterInput) (*model.User, error)
	loginFn        func(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error)
	authenticateFn func(ctx context.Context, token string) (auth.Identity, error)
	meFn           func(ctx context.Context, userID uuid.UUID) (*usecase.Profile, error)
}

func (m *mockAuthService) Register(ctx context.Context, input usecase.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return auth.Identity{}, auth.ErrTokenMalformed
}

func (m *mockAuthService) Me(ctx context.Context, userID uuid.UUID) (*usecase.Profile, error) {
	if m.meFn != nil {
		return m.meFn(ctx, userID)
	}
	return nil, nil
}

// asUser attaches id to the request as the auth middleware would.
func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID, Email: "owner@example.com"}))
}
