package service

import (
	"context"
	"io"
	"log"
	"math"
	"net/http"

	"github.com/google/uuid"
	"uninet.id/campuslink/internal/entity"
	repoDto "uninet.id/campuslink/internal/modules/repository/dto"
	itemRepo "uninet.id/campuslink/internal/modules/repository/repository"
	voteService "uninet.id/campuslink/internal/modules/vote/service"
	"uninet.id/campuslink/pkg/apperror"
	"uninet.id/campuslink/pkg/dto"
	"uninet.id/campuslink/pkg/storage"
)

const uploadFolder = "repository"

type RepositoryService interface {
	Upload(ctx context.Context, userID uuid.UUID, input repoDto.UploadItemInput, file io.Reader, fileName string) (*entity.RepositoryItem, error)
	List(ctx context.Context, q repoDto.ListItemsQuery) ([]repoDto.ItemResponse, *dto.PaginationMeta, error)
	Get(ctx context.Context, itemID uuid.UUID) (*repoDto.ItemResponse, error)
	// Download records the access and returns the file URL to redirect to.
	Download(ctx context.Context, userID, itemID uuid.UUID) (string, error)
	MyDownloads(ctx context.Context, userID uuid.UUID) ([]repoDto.DownloadRecord, error)
	// Delete is uploader-or-admin; the stored file is removed best-effort
	// after the rows.
	Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, itemID uuid.UUID) error
}

type repositoryService struct {
	repo        itemRepo.ItemRepository
	storage     storage.FileStorage
	voteService voteService.VoteService
}

func NewRepositoryService(repo itemRepo.ItemRepository, fileStorage storage.FileStorage, voteService voteService.VoteService) RepositoryService {
	return &repositoryService{
		repo:        repo,
		storage:     fileStorage,
		voteService: voteService,
	}
}

func (s *repositoryService) Upload(ctx context.Context, userID uuid.UUID, input repoDto.UploadItemInput, file io.Reader, fileName string) (*entity.RepositoryItem, error) {
	if s.storage == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "file storage is not configured", apperror.ErrInternal)
	}

	fileURL, err := s.storage.UploadFile(ctx, file, uploadFolder, fileName)
	if err != nil {
		return nil, err
	}

	item := &entity.RepositoryItem{
		Title:            input.Title,
		CourseCode:       input.CourseCode,
		Semester:         input.Semester,
		Department:       input.Department,
		FileURL:          fileURL,
		OriginalFileName: fileName,
		UploadedByID:     userID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		// Roll the uploaded file back so storage doesn't accumulate orphans.
		if delErr := s.storage.DeleteFile(context.Background(), fileURL); delErr != nil {
			log.Printf("Failed to clean up uploaded file %s: %v", fileURL, delErr)
		}
		return nil, err
	}
	return item, nil
}

func (s *repositoryService) List(ctx context.Context, q repoDto.ListItemsQuery) ([]repoDto.ItemResponse, *dto.PaginationMeta, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]repoDto.ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, s.toResponse(ctx, &items[i]))
	}

	meta := &dto.PaginationMeta{
		CurrentPage: q.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		TotalItems:  total,
		Limit:       q.Limit,
	}
	return responses, meta, nil
}

func (s *repositoryService) Get(ctx context.Context, itemID uuid.UUID) (*repoDto.ItemResponse, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.New(http.StatusNotFound, "repository item not found", apperror.ErrNotFound)
	}
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

func (s *repositoryService) Download(ctx context.Context, userID, itemID uuid.UUID) (string, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", apperror.New(http.StatusNotFound, "repository item not found", apperror.ErrNotFound)
	}

	// History is best-effort; the download must not fail on it.
	if err := s.repo.RecordDownload(ctx, itemID, userID); err != nil {
		log.Printf("Failed to record download of %s: %v", itemID, err)
	}
	return item.FileURL, nil
}

func (s *repositoryService) MyDownloads(ctx context.Context, userID uuid.UUID) ([]repoDto.DownloadRecord, error) {
	history, err := s.repo.DownloadHistory(ctx, userID, 50)
	if err != nil {
		return nil, err
	}

	records := make([]repoDto.DownloadRecord, 0, len(history))
	for _, h := range history {
		record := repoDto.DownloadRecord{
			ItemID:       h.ItemID.String(),
			DownloadedAt: h.CreatedAt,
		}
		if item, err := s.repo.FindByID(ctx, h.ItemID); err == nil && item != nil {
			record.Title = item.Title
			record.CourseCode = item.CourseCode
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *repositoryService) Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, itemID uuid.UUID) error {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return apperror.New(http.StatusNotFound, "repository item not found", apperror.ErrNotFound)
	}
	if !isAdmin && item.UploadedByID != actorID {
		return apperror.New(http.StatusForbidden, "only the uploader can delete this item", apperror.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, itemID); err != nil {
		return err
	}

	if s.storage != nil {
		go func() {
			if err := s.storage.DeleteFile(context.Background(), item.FileURL); err != nil {
				log.Printf("Failed to delete stored file %s: %v", item.FileURL, err)
			}
		}()
	}
	return nil
}

func (s *repositoryService) toResponse(ctx context.Context, item *entity.RepositoryItem) repoDto.ItemResponse {
	counts := dto.VoteCounts{Upvotes: item.Upvotes, Downvotes: item.Downvotes, Score: item.VoteScore}
	if s.voteService != nil {
		if fresh, err := s.voteService.Counts(ctx, entity.VotableRepository, item.ID); err == nil {
			counts = *fresh
		}
	}
	downloads, _ := s.repo.CountDownloads(ctx, item.ID)
	return repoDto.ItemResponse{
		RepositoryItem: *item,
		Votes:          counts,
		Downloads:      downloads,
	}
}
