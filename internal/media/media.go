package media

import (
	"context"
	"io"
)

// Upload is a pending image upload read from the request.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// Asset is a stored image on the external media host. AssetID is the
// provider handle required for later deletion.
type Asset struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id"`
}

// Host abstracts the external media host.
type Host interface {
	Upload(ctx context.Context, up Upload) (*Asset, error)
	Delete(ctx context.Context, assetID string) error
}
