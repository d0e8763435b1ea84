package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	sheetMimeType  = "application/vnd.google-apps.spreadsheet"
	xlsxMimeType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Files is the part of Google Drive the ingest flow needs.
type Files interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	GetFile(ctx context.Context, fileID string) (*File, error)
	DownloadFile(ctx context.Context, f *File, w io.Writer) error
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

type Service struct {
	srv *drive.Service
}

var _ Files = (*Service)(nil)

func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
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

// LocalName is the file name to decode the content under. Google Sheets
// are exported as workbooks and gain an .xlsx extension.
func (f *File) LocalName() string {
	if f.MimeType == sheetMimeType && !strings.HasSuffix(strings.ToLower(f.Name), ".xlsx") {
		return f.Name + ".xlsx"
	}
	return f.Name
}

func fromAPI(f *drive.File) *File {
	return &File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Size:         f.Size,
	}
}

func (s *Service) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	if folderID == "" {
		folderID = "root"
	}

	var files []*File
	call := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", quote(folderID))).
		Fields("nextPageToken, files(id, name, mimeType, modifiedTime, size)").
		Context(ctx)

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			files = append(files, fromAPI(f))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	return files, nil
}

func (s *Service) GetFile(ctx context.Context, fileID string) (*File, error) {
	f, err := s.srv.Files.Get(fileID).
		Fields("id, name, mimeType, modifiedTime, size").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get file %s: %w", fileID, err)
	}
	return fromAPI(f), nil
}

// DownloadFile copies the file content to w, exporting Google Sheets as xlsx.
func (s *Service) DownloadFile(ctx context.Context, f *File, w io.Writer) error {
	var (
		resp *http.Response
		err  error
	)
	if f.MimeType == sheetMimeType {
		resp, err = s.srv.Files.Export(f.ID, xlsxMimeType).Context(ctx).Download()
	} else {
		resp, err = s.srv.Files.Get(f.ID).Context(ctx).Download()
	}
	if err != nil {
		return fmt.Errorf("unable to download file %s: %w", f.ID, err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	currentID := "root"

	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				quote(currentID), quote(folder), folderMimeType)).
			Fields("files(id, name)").
			Context(ctx).
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

func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
