package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/ninegrid/internal/proof"
	"github.com/kiesman99/ninegrid/internal/slicer"
	"github.com/kiesman99/ninegrid/internal/storage"
	"github.com/kiesman99/ninegrid/pkg/grid"
)

const version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ninegrid [flags] IMAGE",
	Short:   "Cut an image into a 3×3 grid of square tiles",
	Version: version,
	Long: `ninegrid cuts an image into nine equal square tiles for grid-style posts.

The image is placed on a square canvas the size of its longer side (downscaled
first if that side exceeds --max-dimension), centered on a solid fill, and
split row-major into a 3×3 grid. Tiles are written as <name>_<row>_<col>.png.

Examples:
  # Write the nine tiles next to each other in ./out
  ninegrid -o out holiday.jpg

  # Only write the ZIP archive and a printable proof sheet
  ninegrid --tiles=false --zip --proof holiday.jpg

  # Keep the native resolution and fill with black
  ninegrid --max-dimension 0 --fill '#000000' poster.png

  # Upload tiles and archive to the configured S3 bucket
  NINEGRID_S3_BUCKET=grids ninegrid --publish holiday.jpg

  # Start HTTP server
  ninegrid serve --port 8080`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no args, show help
		if len(args) == 0 {
			return cmd.Help()
		}
		return runSlice(cmd, args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ninegrid.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline steps to stderr")

	// Slicing options, shared with serve
	rootCmd.PersistentFlags().Int("max-dimension", grid.DefaultMaxDimension, "cap for the longer side in pixels (0 keeps the native size)")
	rootCmd.PersistentFlags().Int64("max-file-size", grid.DefaultMaxFileSize, "largest accepted upload in bytes (0 disables)")
	rootCmd.PersistentFlags().Int64("max-pixels", grid.DefaultMaxPixels, "largest accepted width*height (0 disables)")
	rootCmd.PersistentFlags().String("fill", "#FFFFFF", "canvas fill color (#RRGGBB or #RRGGBBAA)")
	rootCmd.PersistentFlags().String("resample", string(grid.ResampleLanczos), "downscale filter (lanczos|catmullrom|bilinear|nearest)")
	rootCmd.PersistentFlags().String("compression", "default", "PNG compression (default|none|speed|best)")

	// Output options
	rootCmd.Flags().StringP("output", "o", ".", "output directory")
	rootCmd.Flags().Bool("tiles", true, "write the nine tile PNGs")
	rootCmd.Flags().Bool("zip", false, "write the ZIP archive")
	rootCmd.Flags().Bool("proof", false, "write a PDF proof sheet")
	rootCmd.Flags().Bool("publish", false, "upload tiles and archive to the configured S3 bucket")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("slice.max-dimension", rootCmd.PersistentFlags().Lookup("max-dimension"))
	viper.BindPFlag("slice.max-file-size", rootCmd.PersistentFlags().Lookup("max-file-size"))
	viper.BindPFlag("slice.max-pixels", rootCmd.PersistentFlags().Lookup("max-pixels"))
	viper.BindPFlag("slice.fill", rootCmd.PersistentFlags().Lookup("fill"))
	viper.BindPFlag("slice.resample", rootCmd.PersistentFlags().Lookup("resample"))
	viper.BindPFlag("slice.compression", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("tiles", rootCmd.Flags().Lookup("tiles"))
	viper.BindPFlag("zip", rootCmd.Flags().Lookup("zip"))
	viper.BindPFlag("proof", rootCmd.Flags().Lookup("proof"))
	viper.BindPFlag("publish", rootCmd.Flags().Lookup("publish"))

	// Object storage is configured through the file or NINEGRID_S3_* only
	viper.SetDefault("s3.endpoint", "")
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.access-key", "")
	viper.SetDefault("s3.secret-key", "")
	viper.SetDefault("s3.bucket", "")
	viper.SetDefault("s3.prefix", "ninegrid")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".ninegrid" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ninegrid")
	}

	// NINEGRID_SLICE_MAX_DIMENSION, NINEGRID_S3_BUCKET, ...
	viper.SetEnvPrefix("ninegrid")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runSlice(cmd *cobra.Command, path string) error {
	opts, err := sliceOptions()
	if err != nil {
		return err
	}
	logger := newLogger(cmd)
	s := slicer.New(opts, logger)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	result, err := s.Slice(cmd.Context(), grid.Upload{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Body:     f,
	})
	if err != nil {
		return fmt.Errorf("failed to slice %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s, %s\n", result.Filename, result.Dimensions(), result.HumanSize())

	outDir := viper.GetString("output")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	written := 0
	if viper.GetBool("tiles") {
		for _, t := range result.Tiles {
			if err := writeOutput(outDir, t.Name, t.Data); err != nil {
				return err
			}
			written++
		}
	}

	var archive []byte
	if viper.GetBool("zip") || viper.GetBool("publish") {
		archive, err = s.Package(cmd.Context(), result)
		if err != nil {
			return err
		}
	}
	if viper.GetBool("zip") {
		if err := writeOutput(outDir, result.ArchiveName(), archive); err != nil {
			return err
		}
		written++
	}

	if viper.GetBool("proof") {
		pdf, err := proof.Render(result.ProofSheet())
		if err != nil {
			return err
		}
		if err := writeOutput(outDir, result.ProofName(), pdf); err != nil {
			return err
		}
		written++
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d files to %s (%dpx tiles)\n", written, outDir, result.Layout.SliceSize)

	if viper.GetBool("publish") {
		return publish(cmd, result, archive)
	}
	return nil
}

func publish(cmd *cobra.Command, result *slicer.Result, archive []byte) error {
	cfg, err := storageConfig()
	if err != nil {
		return err
	}
	if !cfg.Enabled() {
		return fmt.Errorf("--publish needs s3.bucket in the config file or NINEGRID_S3_BUCKET")
	}

	pub, err := storage.NewPublisher(cmd.Context(), cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	objects := make([]storage.Object, 0, len(result.Tiles)+1)
	for _, t := range result.Tiles {
		objects = append(objects, storage.Object{Key: t.Name, ContentType: "image/png", Data: t.Data})
	}
	objects = append(objects, storage.Object{Key: result.ArchiveName(), ContentType: "application/zip", Data: archive})

	base := result.BaseName
	if base == "" {
		base = "slice"
	}
	dir := base + "-" + time.Now().UTC().Format("20060102T150405Z")

	keys, err := pub.Publish(cmd.Context(), dir, objects)
	if err != nil {
		return fmt.Errorf("publish failed after %d of %d objects: %w", len(keys), len(objects), err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Published %d objects to s3://%s/%s\n", len(keys), cfg.Bucket, filepath.ToSlash(filepath.Join(cfg.Prefix, dir)))
	return nil
}

func writeOutput(dir, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
