package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"panotiler/internal/config"
	"panotiler/internal/conversion"
	"panotiler/internal/imaging"
	"panotiler/internal/pyramid"
	"panotiler/internal/server"
	"panotiler/internal/utils/naming"
)

const version = "1.0.0"

var (
	inputPath    string
	outputPath   string
	workers      int
	quality      int
	settingsPath string
	listenAddr   string
	rootCmd      *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:     "panotiler",
		Short:   "Convert equirectangular panoramas into cubemap tile pyramids",
		Long:    `panotiler converts a single equirectangular panoramic image into a multi-resolution cubemap tile pyramid packaged as a ZIP archive with a JSON manifest.`,
		Version: version,
	}

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a panorama file or URL to a tile archive",
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Source panorama: local file path or http(s) URL (required)")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output ZIP path (default: derived from the input name)")
	convertCmd.Flags().IntVarP(&workers, "workers", "w", pyramid.DefaultWorkers, "Concurrent face rasterization workers")
	convertCmd.Flags().IntVarP(&quality, "quality", "q", 100, "JPEG tile quality (1-100)")
	if err := convertCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (overrides settings)")
	serveCmd.Flags().StringVar(&settingsPath, "settings", config.DefaultSettingsPath(), "Settings file path")

	rootCmd.AddCommand(convertCmd, serveCmd)
}

// loadSource reads the panorama from a file or fetches it from a URL
func loadSource(ctx context.Context, input string) ([]byte, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return imaging.NewFetcher(0).FetchURL(ctx, input)
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	return data, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := loadSource(ctx, inputPath)
	if err != nil {
		return err
	}

	src, err := imaging.Decode(data)
	if err != nil {
		return err
	}
	log.Printf("Loaded %dx%d panorama from %s", src.Width, src.Height, inputPath)

	converter := conversion.NewConverter(
		conversion.WithWorkers(workers),
		conversion.WithQuality(quality, quality*85/100),
		conversion.WithLogCallback(func(message string) { log.Print(message) }),
		conversion.WithProgressCallback(func(p pyramid.Progress) {
			fmt.Fprintf(os.Stderr, "\r%s (%d%%)", p.Status, p.Percent)
		}),
	)

	start := time.Now()
	result, err := converter.Convert(ctx, src)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	out := outputPath
	if out == "" {
		out = naming.GenerateArchiveFilename(inputPath)
	}
	if err := os.WriteFile(out, result.Archive, 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	log.Printf("Wrote %s: %d tiles, %d zoom levels (max zoom %d) in %s",
		out, result.TotalTiles, result.ZoomLevels, result.MaxZoom, time.Since(start).Round(time.Millisecond))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := config.Load(settingsPath)
	if err != nil {
		log.Printf("Using default settings: %v", err)
	}
	if listenAddr != "" {
		settings.ListenAddr = listenAddr
	}

	srv, err := server.New(settings)
	if err != nil {
		return err
	}

	return srv.Start(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
