package handler

import (
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
)

type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Namespace string    `json:"namespace"`
	CreatedAt time.Time `json:"created_at"`
}

type folderResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsSystem  bool   `json:"is_system"`
	SortOrder int    `json:"sort_order"`
}

type fileResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FolderID     string    `json:"folder_id"`
	FolderPath   string    `json:"folder_path"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	Ext          string    `json:"ext"`
	Status       string    `json:"status"`
	ArtifactKind string    `json:"artifact_kind,omitempty"`
	HasThumbnail bool      `json:"has_thumbnail"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type slotResponse struct {
	FileID    string    `json:"file_id"`
	Key       string    `json:"key"`
	PutURL    string    `json:"put_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type shareLinkResponse struct {
	Token     string    `json:"token"`
	FolderID  string    `json:"folder_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type downloadResponse struct {
	File      fileResponse `json:"file"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func toProject(project *models.Project) projectResponse {
	return projectResponse{
		ID:        project.GetID(),
		Name:      project.Name,
		Namespace: project.Namespace,
		CreatedAt: project.CreatedAt,
	}
}

func toFolder(folder *models.Folder) folderResponse {
	return folderResponse{
		ID:        folder.GetID(),
		ProjectID: folder.ProjectID,
		Name:      folder.Name,
		Path:      folder.FolderPath,
		IsSystem:  folder.IsSystem,
		SortOrder: folder.SortOrder,
	}
}

func toFolders(folders []*models.Folder) []folderResponse {
	out := make([]folderResponse, 0, len(folders))
	for _, folder := range folders {
		out = append(out, toFolder(folder))
	}
	return out
}

func toFile(upload *models.Upload) fileResponse {
	return fileResponse{
		ID:           upload.GetID(),
		Name:         upload.Name,
		FolderID:     upload.FolderID,
		FolderPath:   upload.FolderPath,
		Size:         upload.Size,
		ContentType:  upload.ContentType,
		Ext:          upload.Ext,
		Status:       string(upload.Status),
		ArtifactKind: upload.ArtifactKind,
		HasThumbnail: upload.ThumbnailKey != "",
		CreatedBy:    upload.CreatedBy,
		CreatedAt:    upload.CreatedAt,
	}
}

func toFiles(uploads []*models.Upload) []fileResponse {
	out := make([]fileResponse, 0, len(uploads))
	for _, upload := range uploads {
		out = append(out, toFile(upload))
	}
	return out
}
