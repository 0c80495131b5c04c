package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"zurura-client/internal/httpclient"
	"zurura-client/internal/model"
	"zurura-client/pkg/apierror"
)

const photoField = "photo"

type Profile struct {
	c Doer
}

func (p *Profile) Get(ctx context.Context) (Response[model.User], error) {
	return call[model.User](ctx, p.c, &httpclient.Request{Method: http.MethodGet, Path: "/me/profile"})
}

func (p *Profile) Update(ctx context.Context, patch model.ProfilePatch) (Response[model.User], error) {
	return call[model.User](ctx, p.c, &httpclient.Request{Method: http.MethodPut, Path: "/me/profile", Body: patch})
}

// UploadPhoto sends content as the "photo" field of a multipart form.
func (p *Profile) UploadPhoto(ctx context.Context, filename string, content io.Reader) (Response[model.PhotoUpload], error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile(photoField, filename)
	if err != nil {
		return Response[model.PhotoUpload]{}, apierror.RequestFailed(fmt.Errorf("create photo part: %w", err))
	}
	if _, err := io.Copy(part, content); err != nil {
		return Response[model.PhotoUpload]{}, apierror.RequestFailed(fmt.Errorf("read photo: %w", err))
	}
	if err := form.Close(); err != nil {
		return Response[model.PhotoUpload]{}, apierror.RequestFailed(fmt.Errorf("close photo form: %w", err))
	}

	return call[model.PhotoUpload](ctx, p.c, &httpclient.Request{
		Method:      http.MethodPost,
		Path:        "/me/profile/photo",
		RawBody:     &body,
		ContentType: form.FormDataContentType(),
	})
}
