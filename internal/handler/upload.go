package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iliyamo/job-board/internal/service"
)

// formFile opens the multipart part name.  A missing part returns a nil
// upload and no error so callers decide whether it is required.
func formFile(c echo.Context, name string) (*service.Upload, func(), error) {
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, service.Validation("invalid multipart body")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, errors.Wrapf(err, "open upload %s", name)
	}
	return &service.Upload{Filename: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}

func requiredFile(name string) error {
	fields := service.FieldErrors{}
	fields.Add(name, "No file was submitted.")
	return fields.Err()
}
