// Package delivery hands rendered documents to their destination: an HTTP
// attachment response or an e-mail transport.
package delivery

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	reporting "bptracker/internal/reporting/domain"
)

// WriteDownload streams the document as an attachment in a single write.
func WriteDownload(w http.ResponseWriter, doc reporting.Document) error {
	if w == nil {
		return errors.New("delivery: nil response writer")
	}
	header := w.Header()
	header.Set("Content-Type", doc.ContentType)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	header.Set("Content-Length", strconv.Itoa(doc.Size()))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(doc.Bytes)
	return err
}
