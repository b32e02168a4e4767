package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Service reads metric snapshots shared on Google Drive.
type Service struct {
	srv *drive.Service
}

func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	// Parse credentials from JSON
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// ListCSVFiles lists non-trashed CSV files in a folder, newest first.
func (s *Service) ListCSVFiles(ctx context.Context, folderID string) ([]*File, error) {
	// If no folder ID is provided, use "root"
	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Context(ctx).
		Q(fmt.Sprintf("'%s' in parents and mimeType='text/csv' and trashed=false", folderID)).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		OrderBy("modifiedTime desc").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	files := make([]*File, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, &File{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		})
	}

	return files, nil
}

func (s *Service) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("unable to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// FindFolderByPath resolves a slash separated folder path from the Drive root.
func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	currentID := "root"

	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Context(ctx).
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false",
				currentID, strings.ReplaceAll(folder, "'", `\'`))).
			Fields("files(id, name)").
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("folder not found: %s", folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}
