package config

import (
	"context"
	"fmt"
	"os"
	"time"

	getter "github.com/hashicorp/go-getter"
)

// fetchTimeout bounds a remote config download
const fetchTimeout = 120 * time.Second

// FetchRemoteConfig downloads a single config file from src to dst.
// src accepts any go-getter address: http(s) urls, git::, s3:: and local paths.
func FetchRemoteConfig(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	pwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("failed to fetch config from %s: %w", src, err)
	}
	return nil
}
