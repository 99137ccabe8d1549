package api

import (
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/media"
)

const (
	msgNoFile          = "No se envió ningún archivo"
	msgUndetectable    = "No se pudo detectar el tipo de archivo"
	msgTypeNotAllowed  = "Tipo de archivo no permitido"
	msgImageTooLarge   = "El archivo es demasiado grande (máx 5MB)"
	uploadFormField    = "file"
	uploadMemoryBuffer = 1 << 20
)

// Upload outcomes recorded in metrics.
const (
	uploadAccepted = "accepted"
	uploadRejected = "rejected"
)

func (s *Server) uploadRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPost: {
			Config: s.admin(guard.Config{RateLimit: s.limits.Upload, NoBody: true}),
			Handle: s.handleUpload,
		},
	})
}

// uploadError maps validation failures to client messages.
func uploadError(err error) error {
	switch {
	case errors.Is(err, media.ErrEmpty):
		return guard.BadRequest(msgNoFile)
	case errors.Is(err, media.ErrUndetectable):
		return guard.BadRequest(msgUndetectable)
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrTypeMismatch):
		return guard.BadRequest(msgTypeNotAllowed)
	case errors.Is(err, media.ErrTooLarge):
		return guard.BadRequest(msgImageTooLarge)
	}
	return err
}

func (s *Server) recordUpload(status string, size int) {
	if s.metrics != nil {
		s.metrics.RecordUpload(status, size)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	if err := r.ParseMultipartForm(uploadMemoryBuffer); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.recordUpload(uploadRejected, 0)
			return guard.Errorf(http.StatusRequestEntityTooLarge, msgImageTooLarge)
		}
		return guard.BadRequest(msgNoFile)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		return guard.BadRequest(msgNoFile)
	}
	defer file.Close()

	data, err := media.ReadLimited(file)
	if err != nil {
		s.recordUpload(uploadRejected, 0)
		return uploadError(err)
	}
	img, err := media.Inspect(header.Header.Get("Content-Type"), data)
	if err != nil {
		s.recordUpload(uploadRejected, len(data))
		return uploadError(err)
	}

	name := media.FileName(s.now(), img.Ext)
	url, err := s.media.Save(r.Context(), name, img)
	if err != nil {
		return err
	}

	s.seclog.FileUpload(c.User.ID, c.User.Email, name, int64(len(data)), c.IP)
	s.recordUpload(uploadAccepted, len(data))
	return ok(w, http.StatusOK, map[string]any{
		"message":  "Imagen subida exitosamente",
		"url":      url,
		"filename": name,
	})
}
