package docstore

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/ilkoid/selcat/pkg/s3storage"
)

// S3 хранит документы в бакете. Имена — ключи объектов.
type S3 struct {
	client       s3storage.ClientInterface
	inputPrefix  string
	outputPrefix string
}

var _ Store = (*S3)(nil)

// NewS3 создаёт хранилище поверх S3 клиента.
func NewS3(client s3storage.ClientInterface, inputPrefix, outputPrefix string) *S3 {
	return &S3{client: client, inputPrefix: inputPrefix, outputPrefix: outputPrefix}
}

func (s *S3) List(ctx context.Context) ([]string, error) {
	objects, err := s.client.ListFiles(ctx, s.inputPrefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, obj := range objects {
		if isInput(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return nil, fmt.Errorf("no selector documents under %s", s.inputPrefix)
	}
	return keys, nil
}

func (s *S3) Read(ctx context.Context, name string) ([]byte, error) {
	return s.client.DownloadFile(ctx, name)
}

func (s *S3) Write(ctx context.Context, name string, data []byte) error {
	return s.client.UploadFile(ctx, name, data, jsonContentType)
}

func (s *S3) OutputName(name string) string {
	return path.Join(s.outputPrefix, ResultName(name))
}
