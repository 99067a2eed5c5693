package importer

import (
	"context"
	"strings"

	"prestashop-importer-service/internal/models"
)

// importImages downloads a product's images. The first successful download
// becomes the primary image (position 0), the rest the gallery. Image
// trouble is never fatal to the product.
func (i *Importer) importImages(ctx context.Context, product *models.Product, productID string, imageIDs []string) {
	position := 0
	for _, imageID := range imageIDs {
		if ctx.Err() != nil {
			return
		}

		data, contentType, err := i.fetchImage(ctx, productID, imageID)
		if err != nil {
			i.runLog.Warn(ctx, "Image download failed", models.JSONB{
				"product_id": productID,
				"image_id":   imageID,
				"error":      err.Error(),
			})
			continue
		}

		image := &models.ProductImage{
			ProductID:         product.ID,
			Position:          position,
			Data:              data,
			ContentType:       contentType,
			PrestashopImageID: imageID,
		}
		if err := i.stores.Products.CreateImage(ctx, image); err != nil {
			i.runLog.Warn(ctx, "Image store failed", models.JSONB{
				"product_id": productID,
				"image_id":   imageID,
				"error":      err.Error(),
			})
			continue
		}
		position++

		if sleep(ctx, i.config.ImageDelay) != nil {
			return
		}
	}
}

// fetchImage tries the public image path first, then falls back to the
// authenticated webservice endpoint. Either way the response must actually
// be an image.
func (i *Importer) fetchImage(ctx context.Context, productID, imageID string) ([]byte, string, error) {
	data, contentType, err := i.fetcher.FetchImage(ctx, i.fetcher.DirectImageURL(imageID), false)
	if err == nil && isImage(contentType) {
		return data, contentType, nil
	}

	data, contentType, err = i.fetcher.FetchImage(ctx, i.fetcher.APIImageURL(productID, imageID), true)
	if err != nil {
		return nil, "", err
	}
	if !isImage(contentType) {
		return nil, "", &notAnImageError{contentType: contentType}
	}
	return data, contentType, nil
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

type notAnImageError struct {
	contentType string
}

func (e *notAnImageError) Error() string {
	return "response is not an image (content type " + e.contentType + ")"
}
