// Package handler はprofileフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"linker/internal/api"
	"linker/internal/feature/profile/domain/entity"
	"linker/internal/feature/profile/transport/http/dto"
	"linker/internal/feature/profile/usecase"
	jwtmw "linker/internal/platform/jwt"
	"linker/internal/platform/metrics"
)

const (
	// PictureField is the multipart field carrying the upload.
	PictureField = "photo"
	// multipartOverhead はフォーム境界やヘッダー分の余裕です。
	multipartOverhead = 1 << 20
	sniffLen          = 512
)

// ProfileUsecase はプロフィール操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uint) (*entity.Profile, error)
	UpdateBio(ctx context.Context, userID uint, bio string) error
	UpdatePicture(ctx context.Context, userID uint, kind entity.PictureKind, picture entity.Picture) (string, error)
	GetPicture(ctx context.Context, userID uint, kind entity.PictureKind) (*entity.StoredPicture, error)
}

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	profile ProfileUsecase
}

// NewProfileHandler はProfileHandlerの新しいインスタンスを生成します。
func NewProfileHandler(profile ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{profile: profile}
}

// currentUser は認証ミドルウェアが設定したユーザーIDを取り出します。
// 未設定ならレスポンスを書き込み、falseを返します。
func currentUser(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	return id, true
}

// writeError はユースケースのエラーをステータスコードに変換します。
func writeError(c *gin.Context, op string, userID uint, err error) {
	switch {
	case errors.Is(err, entity.ErrPictureTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "picture too large"})
	case errors.Is(err, entity.ErrUnsupportedPictureType):
		c.JSON(http.StatusUnsupportedMediaType, api.ErrorResponse{Error: "unsupported picture type"})
	case errors.Is(err, entity.ErrInvalidPicture):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid picture"})
	case errors.Is(err, entity.ErrInvalidBio):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid bio"})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
	case errors.Is(err, usecase.ErrNoPicture):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no picture"})
	case errors.Is(err, usecase.ErrStorageUnavailable), errors.Is(err, usecase.ErrDatabaseUnavailable):
		slog.Error(op+" failed", "user_id", userID, "error", err)
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "service unavailable"})
	default:
		slog.Error(op+" failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// GetProfile handles GET /me.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.profile.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "get profile", userID, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.NewProfileRes(p))
}

// readPicture はmultipartのファイルを最大サイズ+1バイトまで読み込みます。
func readPicture(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > entity.MaxPictureSize {
		return nil, entity.ErrPictureTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, entity.MaxPictureSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > entity.MaxPictureSize {
		return nil, entity.ErrPictureTooLarge
	}
	return data, nil
}

// UpdateBio handles PATCH /me.
func (h *ProfileHandler) UpdateBio(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateBioReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	if err := h.profile.UpdateBio(c.Request.Context(), userID, *req.Bio); err != nil {
		writeError(c, "update bio", userID, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPicture handles PUT /me/picture.
func (h *ProfileHandler) UploadPicture(c *gin.Context) {
	h.upload(c, entity.KindProfile)
}

// UploadBanner handles PUT /me/banner.
func (h *ProfileHandler) UploadBanner(c *gin.Context) {
	h.upload(c, entity.KindBanner)
}

// GetPicture handles GET /me/picture.
func (h *ProfileHandler) GetPicture(c *gin.Context) {
	h.download(c, entity.KindProfile)
}

// GetBanner handles GET /me/banner.
func (h *ProfileHandler) GetBanner(c *gin.Context) {
	h.download(c, entity.KindBanner)
}

// upload は画像を受け取りkindのキーを差し替えます。Content-Typeは
// クライアントのヘッダーではなく先頭バイトから判定します。
func (h *ProfileHandler) upload(c *gin.Context, kind entity.PictureKind) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	op := "upload " + string(kind) + " picture"

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, entity.MaxPictureSize+multipartOverhead)
	fh, err := c.FormFile(PictureField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.ObservePictureUpload(err, 0)
			writeError(c, op, userID, entity.ErrPictureTooLarge)
			return
		}
		slog.Warn("picture upload rejected", "user_id", userID, "kind", kind, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "missing " + PictureField + " file"})
		return
	}

	data, err := readPicture(fh)
	if err != nil {
		metrics.ObservePictureUpload(err, 0)
		if errors.Is(err, entity.ErrPictureTooLarge) {
			writeError(c, op, userID, err)
			return
		}
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable upload"})
		return
	}

	sniff := data
	if len(sniff) > sniffLen {
		sniff = sniff[:sniffLen]
	}
	picture := entity.Picture{Data: data, ContentType: http.DetectContentType(sniff)}

	key, err := h.profile.UpdatePicture(c.Request.Context(), userID, kind, picture)
	metrics.ObservePictureUpload(err, len(data))
	if err != nil {
		writeError(c, op, userID, err)
		return
	}
	slog.Info("picture updated", "user_id", userID, "kind", kind, "key", key, "bytes", len(data))
	c.JSON(http.StatusOK, dto.PictureRes{Key: key})
}

func (h *ProfileHandler) download(c *gin.Context, kind entity.PictureKind) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pic, err := h.profile.GetPicture(c.Request.Context(), userID, kind)
	if err != nil {
		writeError(c, "get "+string(kind)+" picture", userID, err)
		return
	}
	c.Header("Cache-Control", "private, no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, pic.ContentType, pic.Data)
}
