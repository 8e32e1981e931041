package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	repoDto "uninet.id/campuslink/internal/modules/repository/dto"
	repoService "uninet.id/campuslink/internal/modules/repository/service"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	"uninet.id/campuslink/pkg/response"
	"uninet.id/campuslink/pkg/validator"
)

const maxUploadSize = 25 << 20 // 25 MiB

type RepositoryHandler struct {
	service  repoService.RepositoryService
	userRepo userRepo.UserRepository
}

func NewRepositoryHandler(service repoService.RepositoryService, userRepo userRepo.UserRepository) *RepositoryHandler {
	return &RepositoryHandler{service: service, userRepo: userRepo}
}

func (h *RepositoryHandler) Upload(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input repoDto.UploadItemInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the 25MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer file.Close()

	item, err := h.service.Upload(c.Request.Context(), userID, input, file, fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (h *RepositoryHandler) List(c *gin.Context) {
	var q repoDto.ListItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	items, meta, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "meta": meta})
}

func (h *RepositoryHandler) Get(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	item, err := h.service.Get(c.Request.Context(), itemID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (h *RepositoryHandler) Download(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	fileURL, err := h.service.Download(c.Request.Context(), userID, itemID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fileURL)
}

func (h *RepositoryHandler) MyDownloads(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	records, err := h.service.MyDownloads(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (h *RepositoryHandler) Delete(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	isAdmin := false
	if user, err := h.userRepo.FindByID(c.Request.Context(), userID.String()); err == nil {
		isAdmin = user.IsAdmin()
	}

	if err := h.service.Delete(c.Request.Context(), userID, isAdmin, itemID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "repository item deleted"})
}
