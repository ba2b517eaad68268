package mocks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

const StoreBaseURL = "https://cdn.test/"

type ObjectStore struct {
	UploadFunc func(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)

	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{Objects: make(map[string][]byte)}
}

func (s *ObjectStore) Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	if s.UploadFunc != nil {
		return s.UploadFunc(ctx, objectName, contentType, body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[objectName] = data
	return StoreBaseURL + objectName, nil
}

func (s *ObjectStore) Delete(ctx context.Context, objectNames ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range objectNames {
		delete(s.Objects, name)
		s.Deleted = append(s.Deleted, name)
	}
	return nil
}

func (s *ObjectStore) ObjectName(publicURL string) (string, error) {
	if !strings.HasPrefix(publicURL, StoreBaseURL) {
		return "", fmt.Errorf("not a store url")
	}
	return strings.TrimPrefix(publicURL, StoreBaseURL), nil
}
