package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/visionprobe/probe-cli/internal/pipeline"
	"github.com/visionprobe/probe-cli/pkg/anthropic"
)

const maxImageBytes = 5 << 20

// allowedImageTypes maps sniffed content types to the pipeline.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var (
	analyzeImage string
	analyzeURLs  []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a product from a photo and/or page URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if analyzeImage == "" && len(analyzeURLs) == 0 {
			return eris.New("at least one of --image or --url is required")
		}

		var img *anthropic.ImageData
		var imgName string
		if analyzeImage != "" {
			data, err := os.ReadFile(analyzeImage)
			if err != nil {
				return eris.Wrap(err, "read image")
			}
			img, err = validateImage(data)
			if err != nil {
				return err
			}
			imgName = filepath.Base(analyzeImage)
		}

		env, err := initPipeline(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Process(ctx, pipeline.Input{
			Image:     img,
			ImageName: imgName,
			RawURLs:   analyzeURLs,
		})
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis finished",
			zap.String("status", string(result.Report.Status)),
			zap.Int("steps", len(result.Report.StepsCompleted)),
			zap.Int64("total_tokens", result.TotalTokens),
			zap.Float64("estimated_usd", result.EstimatedUSD),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Report)
	},
}

// validateImage enforces the upload size cap and sniffs the content type
// against the accepted formats.
func validateImage(data []byte) (*anthropic.ImageData, error) {
	if len(data) == 0 {
		return nil, eris.New("image is empty")
	}
	if len(data) > maxImageBytes {
		return nil, eris.Errorf("image exceeds %d MB limit", maxImageBytes>>20)
	}
	mediaType := http.DetectContentType(data)
	if !allowedImageTypes[mediaType] {
		return nil, eris.Errorf("unsupported image type %s (want JPEG, PNG, or WEBP)", mediaType)
	}
	return &anthropic.ImageData{
		MediaType: mediaType,
		Base64:    base64.StdEncoding.EncodeToString(data),
	}, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeImage, "image", "", "path to a product photo (JPEG, PNG, or WEBP)")
	analyzeCmd.Flags().StringArrayVar(&analyzeURLs, "url", nil, "product page URL (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}
