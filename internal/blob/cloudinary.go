package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
)

// CloudinaryStore is the production blob store.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

var _ Store = (*CloudinaryStore)(nil)

// NewCloudinaryStore initializes the Cloudinary client from credentials.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, folder string) (UploadResult, error) {
	fileBytes, err := io.ReadAll(r)
	if err != nil {
		return UploadResult{}, apperr.External("read upload", err)
	}

	res, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return UploadResult{}, apperr.External("upload to cloudinary", err)
	}

	return UploadResult{
		ID:   res.PublicID,
		URL:  res.SecureURL,
		Size: int64(len(fileBytes)),
	}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, blobID string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: blobID})
	if err != nil {
		return apperr.External("delete from cloudinary", err)
	}
	// "not found" counts as released; anything else unexpected does not.
	if res.Result != "ok" && res.Result != "not found" {
		return apperr.External("delete from cloudinary", fmt.Errorf("result %q", res.Result))
	}
	return nil
}
