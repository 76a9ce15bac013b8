package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/svvaap/bookhive/internal/remote"
	"github.com/svvaap/bookhive/internal/uploads"
)

// Book record fields an upload task may fill in.
const (
	AssetFieldCover = "coverImageUrl"
	AssetFieldFile  = "fileUrl"
)

// UploadBookAssetTask pushes a staged cover or content file to object
// storage, then writes the resulting URL into the book's remote record.
// The staging file is removed on success.
type UploadBookAssetTask struct {
	BookID      string `json:"book_id"`
	Field       string `json:"field"` // AssetFieldCover or AssetFieldFile
	StagingPath string `json:"staging_path"`
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type"`
}

// Config returns the queue configuration for asset uploads.
func (t UploadBookAssetTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "upload_book_asset",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// UploadBookAssetProcessor performs the upload and the record update. The
// URL expiry bounds how long the pre-signed link the catalog serves stays
// valid. Observe, when non-nil, receives the upload duration.
func UploadBookAssetProcessor(objects uploads.ObjectStore, store remote.Store, urlExpiry time.Duration, observe func(seconds float64)) backlite.QueueProcessor[UploadBookAssetTask] {
	return func(ctx context.Context, task UploadBookAssetTask) error {
		if task.Field != AssetFieldCover && task.Field != AssetFieldFile {
			return fmt.Errorf("unknown asset field %q", task.Field)
		}

		f, err := os.Open(task.StagingPath)
		if err != nil {
			return fmt.Errorf("open staged asset: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat staged asset: %w", err)
		}

		start := time.Now()
		if err := objects.Put(ctx, task.ObjectKey, f, info.Size(), task.ContentType); err != nil {
			return fmt.Errorf("upload asset for book %s: %w", task.BookID, err)
		}
		if observe != nil {
			observe(time.Since(start).Seconds())
		}

		url, err := objects.URL(ctx, task.ObjectKey, urlExpiry)
		if err != nil {
			return fmt.Errorf("resolve asset url for book %s: %w", task.BookID, err)
		}

		path := remote.Join("ebooks", task.BookID, task.Field)
		if err := store.Write(ctx, path, url); err != nil {
			return fmt.Errorf("write asset url for book %s: %w", task.BookID, err)
		}

		if err := os.Remove(task.StagingPath); err != nil {
			log.Printf("WARNING: could not remove staged asset %s: %v", task.StagingPath, err)
		}
		log.Printf("[TASK] Uploaded %s for book %s (%d bytes)", task.Field, task.BookID, info.Size())
		return nil
	}
}

// NewUploadBookAssetQueue creates the backlite queue for asset uploads.
func NewUploadBookAssetQueue(objects uploads.ObjectStore, store remote.Store, urlExpiry time.Duration, observe func(seconds float64)) backlite.Queue {
	return backlite.NewQueue(UploadBookAssetProcessor(objects, store, urlExpiry, observe))
}
