package storage

import "context"

// Uploader abstracts image storage. Handlers only ever keep the returned URL;
// they never interpret it.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte, userID, filename string) (*UploadResult, error)
	DeleteImage(ctx context.Context, key string) error
	// KeyFromURL maps a URL produced by UploadImage back to its storage key,
	// or "" for foreign URLs.
	KeyFromURL(url string) string
}

// Ensure S3Uploader implements Uploader
var _ Uploader = (*S3Uploader)(nil)
