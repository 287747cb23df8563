package main

import (
	"fmt"
	"log"

	"crownhunt/internal/persistence/r2s3"
)

type mirrorRuntime struct {
	enabled bool
	mirror  *r2s3.Mirror
}

func buildMirrorRuntime(cfg envConfig, dataDir string, logger *log.Logger) (*mirrorRuntime, error) {
	if !cfg.MirrorEnabled {
		return &mirrorRuntime{}, nil
	}
	if cfg.MirrorEndpoint == "" || cfg.MirrorBucket == "" || cfg.MirrorAccessKeyID == "" || cfg.MirrorSecretAccessKey == "" {
		return nil, fmt.Errorf("CH_S3_MIRROR=true but CH_S3_ENDPOINT/CH_S3_BUCKET/CH_S3_ACCESS_KEY_ID/CH_S3_SECRET_ACCESS_KEY are not fully set")
	}

	client, err := r2s3.New(cfg.MirrorEndpoint, cfg.MirrorBucket, cfg.MirrorAccessKeyID, cfg.MirrorSecretAccessKey)
	if err != nil {
		return nil, err
	}
	mirror := r2s3.NewMirror(client, dataDir, cfg.MirrorPrefix, cfg.MirrorWorkers, 0, logger)
	return &mirrorRuntime{enabled: true, mirror: mirror}, nil
}

func (m *mirrorRuntime) Close() {
	if m == nil || m.mirror == nil {
		return
	}
	m.mirror.Close()
}

func (m *mirrorRuntime) Enqueue(localPath string) {
	if m == nil || !m.enabled || m.mirror == nil {
		return
	}
	m.mirror.Enqueue(localPath)
}

func (m *mirrorRuntime) Stats() r2s3.Stats {
	if m == nil || m.mirror == nil {
		return r2s3.Stats{}
	}
	return m.mirror.Stats()
}
