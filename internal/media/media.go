// Package media stores uploaded videos and images on Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"blackdonut/internal/observability"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrNotConfigured is returned by Disabled for every operation.
var ErrNotConfigured = errors.New("media storage is not configured")

// Kind is the Cloudinary resource type of an asset.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

var allowedExtensions = map[Kind][]string{
	KindVideo: {".mp4", ".mov", ".webm", ".mkv", ".m4v"},
	KindImage: {".jpg", ".jpeg", ".png", ".gif", ".webp"},
}

// Allowed reports whether filename has an extension accepted for kind.
func Allowed(kind Kind, filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	for _, allowed := range allowedExtensions[kind] {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Asset identifies a stored file.
type Asset struct {
	URL      string
	PublicID string
}

// Store uploads and deletes assets.
type Store interface {
	Upload(ctx context.Context, kind Kind, publicID string, r io.Reader) (*Asset, error)
	Delete(ctx context.Context, kind Kind, publicID string) error
}

// CloudinaryStore is a Store backed by Cloudinary.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore creates a store that writes under folder.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

// Ping checks credentials and connectivity.
func (s *CloudinaryStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s.cld.Admin.Ping(ctx); err != nil {
		return fmt.Errorf("cloudinary ping: %w", err)
	}
	return nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, kind Kind, publicID string, r io.Reader) (*Asset, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       path.Join(s.folder, string(kind)+"s"),
		PublicID:     publicID,
		ResourceType: string(kind),
	})
	if err == nil && res.Error.Message != "" {
		err = errors.New(res.Error.Message)
	}
	if err != nil {
		observability.MediaUploads.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}
	observability.MediaUploads.WithLabelValues(string(kind), "ok").Inc()
	return &Asset{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, kind Kind, publicID string) error {
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: string(kind),
	})
	if err == nil && res.Error.Message != "" {
		err = errors.New(res.Error.Message)
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, publicID, err)
	}
	return nil
}

// Disabled is the Store used when no media host is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, Kind, string, io.Reader) (*Asset, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Delete(context.Context, Kind, string) error {
	return ErrNotConfigured
}
