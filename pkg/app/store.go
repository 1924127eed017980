package app

import (
	"fmt"

	"github.com/ilkoid/selcat/pkg/config"
	"github.com/ilkoid/selcat/pkg/docstore"
	"github.com/ilkoid/selcat/pkg/s3storage"
)

// StoreSpec описывает, откуда читать документы и куда писать результаты.
type StoreSpec struct {
	// Input — файл или каталог на диске. Игнорируется при S3Prefix.
	Input string
	// S3Prefix включает чтение из бакета (пусто = локальный режим).
	S3Prefix string
	// OutDir переопределяет каталог результатов для локального режима.
	OutDir string
}

// NewStore создаёт хранилище документов по StoreSpec.
func NewStore(cfg *config.AppConfig, spec StoreSpec) (docstore.Store, error) {
	if spec.S3Prefix == "" {
		if spec.Input == "" {
			return nil, fmt.Errorf("input path is required")
		}
		return docstore.NewLocal(spec.Input, spec.OutDir), nil
	}

	if !cfg.S3.Enabled() {
		return nil, fmt.Errorf("s3 mode requires s3.bucket in config.yaml")
	}
	client, err := s3storage.New(cfg.S3)
	if err != nil {
		return nil, err
	}
	return docstore.NewS3(client, spec.S3Prefix, cfg.S3.OutputPrefix), nil
}
