package handler

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/gin-gonic/gin"

	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/storage"
)

type signedOpener interface {
	OpenSigned(ctx context.Context, token string) (io.ReadCloser, *storage.Object, error)
}

// BlobHandler serves blobs of the local store to holders of a signed token.
// The token is the credential; the route sits outside JWT.
type BlobHandler struct {
	store signedOpener
}

// NewBlobHandler constructs the handler.
func NewBlobHandler(store signedOpener) *BlobHandler {
	return &BlobHandler{store: store}
}

// Download godoc
// @Summary Download a blob via signed token
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /blobs/{token} [get]
func (h *BlobHandler) Download(c *gin.Context) {
	if h.store == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "signed downloads are not served by this store"))
		return
	}
	rc, obj, err := h.store.OpenSigned(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTokenExpired):
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download link expired"))
		case errors.Is(err, storage.ErrTokenInvalid):
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid download link"))
		case errors.Is(err, storage.ErrObjectNotFound):
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "blob not found"))
		default:
			response.Error(c, appErrors.Dependency(err, "failed to open blob"))
		}
		return
	}
	defer rc.Close() //nolint:errcheck
	response.Inline(c, path.Base(obj.Key), obj.ContentType, obj.Size, rc)
}
