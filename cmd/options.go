package cmd

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/ninegrid/internal/slicer"
	"github.com/kiesman99/ninegrid/internal/storage"
	"github.com/kiesman99/ninegrid/pkg/grid"
)

// sliceOptions builds slicer options from the slice.* settings
func sliceOptions() (slicer.Options, error) {
	opts := slicer.DefaultOptions()

	opts.MaxDimension = viper.GetInt("slice.max-dimension")
	if opts.MaxDimension < 0 {
		return opts, fmt.Errorf("max-dimension must not be negative")
	}
	opts.MaxFileSize = viper.GetInt64("slice.max-file-size")
	opts.MaxPixels = viper.GetInt64("slice.max-pixels")

	fill, err := grid.ParseColor(viper.GetString("slice.fill"))
	if err != nil {
		return opts, err
	}
	opts.Fill = fill

	if opts.Resampler, err = grid.ParseResampler(viper.GetString("slice.resample")); err != nil {
		return opts, err
	}
	if opts.Compression, err = grid.ParseCompression(viper.GetString("slice.compression")); err != nil {
		return opts, err
	}
	return opts, nil
}

// storageConfig reads s3.* keys one by one so NINEGRID_S3_* overrides apply
func storageConfig() (storage.Config, error) {
	cfg := storage.Config{
		Endpoint:  viper.GetString("s3.endpoint"),
		Region:    viper.GetString("s3.region"),
		AccessKey: viper.GetString("s3.access-key"),
		SecretKey: viper.GetString("s3.secret-key"),
		Bucket:    viper.GetString("s3.bucket"),
		Prefix:    viper.GetString("s3.prefix"),
	}
	if cfg.AccessKey != "" && cfg.SecretKey == "" {
		return cfg, fmt.Errorf("s3.access-key is set but s3.secret-key is empty")
	}
	return cfg, nil
}

// newLogger returns a stderr logger with --verbose, otherwise one that
// discards everything.
func newLogger(cmd *cobra.Command) *log.Logger {
	if !viper.GetBool("verbose") {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "ninegrid: ", log.LstdFlags)
}
