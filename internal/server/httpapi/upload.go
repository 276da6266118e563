package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/filex"
)

// parseMultipart reads a size-limited multipart body.
func (r *Router) parseMultipart(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUploadBytes)
	if err := req.ParseMultipartForm(r.maxUploadBytes); err != nil {
		return fmt.Errorf("parse multipart: %w", err)
	}
	return nil
}

// stageFile copies the multipart file field into the upload directory and
// returns its local path, or "" when the field is absent.
func (r *Router) stageFile(req *http.Request, field string) (string, error) {
	f, hdr, err := req.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	path, err := filex.SaveTemp(r.uploadDir, strings.ToLower(filepath.Ext(hdr.Filename)), f)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", field, err)
	}
	return path, nil
}

func cleanupMultipart(req *http.Request) {
	if req.MultipartForm != nil {
		_ = req.MultipartForm.RemoveAll()
	}
}
