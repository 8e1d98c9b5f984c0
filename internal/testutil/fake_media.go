package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/quillford/inkpress/internal/media"

	"github.com/google/uuid"
)

// FakeMediaHost is an in-memory media.Host that records uploads and
// deletions. FailUpload/FailDelete inject errors.
type FakeMediaHost struct {
	mu         sync.Mutex
	assets     map[string]string // asset id -> url
	Uploads    []string
	Deletions  []string
	FailUpload bool
	FailDelete bool
}

func NewFakeMediaHost() *FakeMediaHost {
	return &FakeMediaHost{
		assets: make(map[string]string),
	}
}

func (f *FakeMediaHost) Upload(ctx context.Context, up media.Upload) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailUpload {
		return nil, errors.New("fake media host: upload rejected")
	}

	assetID := uuid.NewString()
	url := fmt.Sprintf("https://media.test/%s/%s", assetID, up.Filename)
	f.assets[assetID] = url
	f.Uploads = append(f.Uploads, assetID)

	return &media.Asset{URL: url, AssetID: assetID}, nil
}

func (f *FakeMediaHost) Delete(ctx context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailDelete {
		return errors.New("fake media host: delete rejected")
	}

	delete(f.assets, assetID)
	f.Deletions = append(f.Deletions, assetID)
	return nil
}

// Stored reports whether the asset is still retrievable from the host.
func (f *FakeMediaHost) Stored(assetID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.assets[assetID]
	return ok
}

// StoredCount returns how many assets the host currently holds.
func (f *FakeMediaHost) StoredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assets)
}
