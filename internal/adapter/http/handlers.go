package http

import (
	"github.com/Strob0t/showcase/internal/service"
)

// Handlers holds the services behind the REST API.
type Handlers struct {
	Projects *service.ProjectService
	Previews *service.PreviewService
	Requests *service.RequestService
	Uploads  *service.UploadService

	BodyLimit int64 // max JSON or multipart body in bytes
}
