// Package handler はlinksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"linker/internal/api"
	"linker/internal/feature/links/domain/entity"
	"linker/internal/feature/links/transport/http/dto"
	"linker/internal/feature/links/usecase"
	jwtmw "linker/internal/platform/jwt"
)

// LinksUsecase はリンク操作のユースケースを定義します。
type LinksUsecase interface {
	CreateLink(ctx context.Context, userID uint, in entity.NewLink) (*entity.Link, error)
	ListLinks(ctx context.Context, userID uint) ([]entity.Link, error)
	DeleteLink(ctx context.Context, userID, linkID uint) error
}

// LinksHandler serves the user's own links and the public list.
type LinksHandler struct {
	links LinksUsecase
}

// NewLinksHandler はLinksHandlerの新しいインスタンスを生成します。
func NewLinksHandler(links LinksUsecase) *LinksHandler {
	return &LinksHandler{links: links}
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidLink):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrTooManyLinks):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "too many links"})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
	case errors.Is(err, usecase.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "link not found"})
	case errors.Is(err, usecase.ErrDatabaseUnavailable):
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "service unavailable"})
	default:
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// idParam はパスパラメータを正のIDとして読み取ります。
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	return id, true
}

// Create handles POST /me/links.
func (h *LinksHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateLinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	link, err := h.links.CreateLink(c.Request.Context(), userID, entity.NewLink{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, "create link", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewLinkRes(link))
}

// ListMine handles GET /me/links.
func (h *LinksHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.list(c, userID)
}

// ListPublic handles GET /users/:id/links. No session is required.
func (h *LinksHandler) ListPublic(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.list(c, userID)
}

func (h *LinksHandler) list(c *gin.Context, userID uint) {
	links, err := h.links.ListLinks(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "list links", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLinksRes(links))
}

// Delete handles DELETE /me/links/:id.
func (h *LinksHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	linkID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.links.DeleteLink(c.Request.Context(), userID, linkID); err != nil {
		writeError(c, "delete link", err)
		return
	}
	c.Status(http.StatusNoContent)
}
