package controllers

import (
	"mime/multipart"
	"net/http"

	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
)

const defaultMaxUploadMB = 20

// formFile pulls one named file out of a multipart request, capping the
// request body at maxMB.
func formFile(r *http.Request, field string, maxMB int) (multipart.File, string, error) {
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	maxBytes := int64(maxMB) << 20

	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "missing "+field+" file")
	}
	return file, header.Filename, nil
}
