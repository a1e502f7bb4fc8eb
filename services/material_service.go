package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
	"github.com/Dosada05/competition-system/storage"
)

type MaterialInput struct {
	StageID     int     `json:"stage_id" validate:"required,gte=1"`
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

type MaterialService interface {
	CreateMaterial(ctx context.Context, input MaterialInput, creatorID int) (*models.CourseMaterial, error)
	UploadFile(ctx context.Context, materialID int, contentType string, file io.Reader) (*models.CourseMaterial, error)
	DeleteMaterial(ctx context.Context, materialID int) error
	ListForStage(ctx context.Context, stageID int) ([]models.CourseMaterial, error)
	// ListForTeam is gated: the team must be allowed into the stage.
	ListForTeam(ctx context.Context, teamID, stageID int) ([]models.CourseMaterial, error)
}

type materialService struct {
	materialRepo repositories.MaterialRepository
	stageRepo    repositories.StageRepository
	gate         StageGate
	uploader     storage.FileUploader
	validator    *Validator
	logger       *slog.Logger
}

// NewMaterialService: uploader может быть nil, если хранилище не настроено.
func NewMaterialService(
	materialRepo repositories.MaterialRepository,
	stageRepo repositories.StageRepository,
	gate StageGate,
	uploader storage.FileUploader,
	validator *Validator,
	logger *slog.Logger,
) MaterialService {
	return &materialService{
		materialRepo: materialRepo,
		stageRepo:    stageRepo,
		gate:         gate,
		uploader:     uploader,
		validator:    validator,
		logger:       logger,
	}
}

func (s *materialService) CreateMaterial(ctx context.Context, input MaterialInput, creatorID int) (*models.CourseMaterial, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.stageRepo.GetByID(ctx, input.StageID); err != nil {
		return nil, handleRepositoryError(err)
	}
	m := &models.CourseMaterial{
		StageID:     input.StageID,
		Title:       input.Title,
		Description: input.Description,
		CreatedBy:   creatorID,
	}
	if err := s.materialRepo.Create(ctx, m); err != nil {
		return nil, handleRepositoryError(err)
	}
	return m, nil
}

// UploadFile stores the file and replaces the previous one, if any.
func (s *materialService) UploadFile(ctx context.Context, materialID int, contentType string, file io.Reader) (*models.CourseMaterial, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	m, err := s.materialRepo.GetByID(ctx, materialID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	key, err := storage.MaterialKey(m.StageID, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, ErrUnsupportedFileType
		}
		return nil, err
	}
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload material %d: %w", materialID, err)
	}

	oldKey := m.FileKey
	if err := s.materialRepo.UpdateFileKey(ctx, materialID, &key); err != nil {
		s.deleteObject(ctx, key)
		return nil, handleRepositoryError(err)
	}
	if oldKey != nil && *oldKey != "" {
		s.deleteObject(ctx, *oldKey)
	}

	m.FileKey = &key
	populateMaterialURL(m, s.uploader)
	return m, nil
}

func (s *materialService) DeleteMaterial(ctx context.Context, materialID int) error {
	m, err := s.materialRepo.GetByID(ctx, materialID)
	if err != nil {
		return handleRepositoryError(err)
	}
	if err := s.materialRepo.Delete(ctx, materialID); err != nil {
		return handleRepositoryError(err)
	}
	if m.FileKey != nil && *m.FileKey != "" && s.uploader != nil {
		s.deleteObject(ctx, *m.FileKey)
	}
	return nil
}

func (s *materialService) ListForStage(ctx context.Context, stageID int) ([]models.CourseMaterial, error) {
	if _, err := s.stageRepo.GetByID(ctx, stageID); err != nil {
		return nil, handleRepositoryError(err)
	}
	materials, err := s.materialRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials for stage %d: %w", stageID, err)
	}
	for i := range materials {
		populateMaterialURL(&materials[i], s.uploader)
	}
	return materials, nil
}

func (s *materialService) ListForTeam(ctx context.Context, teamID, stageID int) ([]models.CourseMaterial, error) {
	decision, err := s.gate.CanAccessStage(ctx, teamID, stageID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decision.Err()
	}
	return s.ListForStage(ctx, stageID)
}

// Ошибка удаления объекта не критична: запись в БД уже согласована.
func (s *materialService) deleteObject(ctx context.Context, key string) {
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete material object", slog.String("key", key), slog.Any("error", err))
	}
}
