package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierjamel/traiteur-backend/internal/catalog"
	"github.com/atelierjamel/traiteur-backend/pkg/config"
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
)

const imageObjectPrefix = "data/product/images"

var unsafeObjectChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// Uploader is the object-store surface the media service needs.
type Uploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// Service handles product image uploads: decode, downscale to the catalog
// thumbnail width and persist the public URL on the product row.
type Service interface {
	UploadProductImage(ctx context.Context, productID uuid.UUID, filename string, r io.Reader) (*models.Product, error)
}

type service struct {
	products catalog.Repository
	store    Uploader
	cfg      config.MediaConfig
	logg     *logger.Logger
}

// NewService builds the media service with the required dependencies.
func NewService(products catalog.Repository, store Uploader, cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{products: products, store: store, cfg: cfg, logg: logg}, nil
}

func (s *service) UploadProductImage(ctx context.Context, productID uuid.UUID, filename string, r io.Reader) (*models.Product, error) {
	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is not a decodable image")
	}

	width := s.cfg.ImageWidth
	if width <= 0 {
		width = 120
	}
	// Height 0 keeps the aspect ratio.
	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)

	quality := s.cfg.ImageJPGQuality
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode thumbnail")
	}

	objectPath := imageObjectPath(filename, product.ID)
	publicURL, err := s.store.Upload(ctx, objectPath, "image/jpeg", &buf)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}

	if err := s.products.UpdateProduct(ctx, productID, map[string]any{"image_url": publicURL}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save image url")
	}

	s.logg.Info(s.logg.WithField(ctx, "object", objectPath), "product image uploaded")

	product.ImageURL = &publicURL
	return product, nil
}

// imageObjectPath derives a stable object name from the uploaded filename,
// falling back to the product id when the name sanitizes to nothing.
func imageObjectPath(filename string, productID uuid.UUID) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = unsafeObjectChars.ReplaceAllString(strings.ToLower(base), "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = productID.String()
	}
	return fmt.Sprintf("%s/%s.jpeg", imageObjectPrefix, base)
}
