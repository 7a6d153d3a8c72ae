package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
)

// ImageGenerator produces a cover image for one slot and returns its public
// URL path plus the prompt used.
type ImageGenerator interface {
	Generate(ctx context.Context, contentType models.ContentType, slug string) (string, string, error)
}

// Real people must never appear in clinic imagery, so every prompt forbids
// them.
var imagePrompts = map[models.ContentType]string{
	models.ContentFAQ: "Clean medical infographic, soft blue and white color palette, Korean hospital setting, " +
		"professional healthcare illustration, minimalist design, no text, no people",
	models.ContentDisease: "Medical anatomy illustration, clean educational diagram, soft blue tones, " +
		"professional healthcare visual, no text, minimalist",
	models.ContentTreatment: "Modern Korean hospital treatment room, clean white aesthetic, medical equipment, " +
		"soft lighting, professional photography style, empty room, no people",
	models.ContentColumn: "Professional Korean doctor consultation setting, warm clinic atmosphere, " +
		"trustworthy medical environment, soft natural lighting, no people visible",
	models.ContentHealth: "Healthy lifestyle illustration, Korean context, clean bright design, " +
		"prevention healthcare theme, soft green and blue tones, no text",
	models.ContentLocal: "Korean local clinic exterior, neighborhood healthcare building, welcoming entrance, " +
		"daytime, clean architecture, soft warm tones",
	models.ContentNotice: "Modern Korean hospital interior, clean white and blue color scheme, " +
		"professional medical environment, contemporary clinic design",
}

// ImagenGenerator renders cover images with Imagen and stores them under the
// site output directory.
type ImagenGenerator struct {
	config *config.GeminiConfig
	site   *config.SiteConfig
	client *genai.Client
	logger *zap.Logger
}

func NewImagenGenerator(ctx context.Context, cfg *config.GeminiConfig, site *config.SiteConfig, logger *zap.Logger) (*ImagenGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &ImagenGenerator{
		config: cfg,
		site:   site,
		client: client,
		logger: logger,
	}, nil
}

func (g *ImagenGenerator) Generate(ctx context.Context, contentType models.ContentType, slug string) (string, string, error) {
	prompt, ok := imagePrompts[contentType]
	if !ok {
		prompt = imagePrompts[models.ContentFAQ]
	}

	result, err := g.client.Models.GenerateImages(ctx,
		g.config.ImageModel,
		prompt,
		&genai.GenerateImagesConfig{
			NumberOfImages: 1,
			AspectRatio:    "16:9",
		},
	)
	if err != nil {
		return "", "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(result.GeneratedImages) == 0 || result.GeneratedImages[0].Image == nil {
		return "", "", fmt.Errorf("image model returned no images")
	}

	filename := uuid.New().String() + ".png"
	dir := filepath.Join(g.site.OutputDir, "assets", slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create asset dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, result.GeneratedImages[0].Image.ImageBytes, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write image: %w", err)
	}

	url := fmt.Sprintf("/assets/%s/%s", slug, filename)
	g.logger.Info("Cover image stored", zap.String("url", url))
	return url, prompt, nil
}
