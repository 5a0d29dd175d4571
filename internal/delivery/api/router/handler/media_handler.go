package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"beatmarket/internal/delivery/api/middleware"
	"beatmarket/internal/delivery/api/response"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// MediaHandlerParams holds dependencies for MediaHandler, injected by Fx.
type MediaHandlerParams struct {
	fx.In

	MediaUC usecase.MediaUsecase
	Logger  *slog.Logger
}

// MediaHandler uploads and streams media objects.
type MediaHandler struct {
	mediaUC usecase.MediaUsecase
	logger  *slog.Logger
}

// NewMediaHandler is the constructor for MediaHandler.
func NewMediaHandler(params MediaHandlerParams) *MediaHandler {
	return &MediaHandler{
		mediaUC: params.MediaUC,
		logger:  params.Logger,
	}
}

// MediaResponse references a stored object. Key is what beats and profiles store.
type MediaResponse struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload stores a multipart file field "file" of the given "kind" (image or audio).
func (h *MediaHandler) Upload(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	upload, closeFn, err := readUpload(c, usecase.MediaKind(c.FormValue("kind")))
	if err != nil {
		return err
	}
	defer closeFn()

	obj, err := h.mediaUC.Upload(c.Request().Context(), userID, upload)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, MediaResponse{
		Key:         obj.Key,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	})
}

// Download streams the object stored under the wildcard path.
func (h *MediaHandler) Download(c echo.Context) error {
	rc, obj, err := h.mediaUC.Open(c.Request().Context(), c.Param("*"))
	if err != nil {
		return errors.WithStack(err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))

	return c.Stream(http.StatusOK, obj.ContentType, rc)
}

// readUpload opens the multipart "file" field. The returned func closes it.
func readUpload(c echo.Context, kind usecase.MediaKind) (*usecase.UploadInput, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, domainerrors.ErrValidationFailed.WithDetails("multipart field file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open uploaded file")
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		if byExt := mime.TypeByExtension(path.Ext(fh.Filename)); byExt != "" {
			contentType = byExt
		}
	}

	return &usecase.UploadInput{
		Kind:        kind,
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
