// Package archive exports a room's file set to object storage and
// imports it back.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("archive not found")

// Archive is the stored document. Files maps names to contents.
type Archive struct {
	RoomID     string            `json:"roomId"`
	ExportedAt time.Time         `json:"exportedAt"`
	Files      map[string]string `json:"files"`
}

type Store interface {
	Put(ctx context.Context, a Archive) (key string, err error)
	Get(ctx context.Context, key string) (Archive, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

func encode(a Archive) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Archive, error) {
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return Archive{}, fmt.Errorf("failed to decode archive: %w", err)
	}
	if len(a.Files) == 0 {
		return Archive{}, errors.New("archive holds no files")
	}
	return a, nil
}
