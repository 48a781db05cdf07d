package vertexai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"genquota-server/internal/domain"

	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// Provider runs image generation on Vertex AI Gemini models.
type Provider struct {
	client *genai.Client
	logger domain.Logger
}

// NewProvider creates a Vertex AI client. credentialsFile is optional; application
// default credentials are used when it is empty.
func NewProvider(ctx context.Context, projectID, location, credentialsFile string, logger domain.Logger) (*Provider, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project id must be provided")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}

	logger.Info("Vertex AI client initialized", "project", projectID, "location", location)
	return &Provider{client: client, logger: logger}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate sends the prompt and images to the model. Content-policy blocks are
// returned as a response carrying the block reason, not as an error.
func (p *Provider) Generate(ctx context.Context, req domain.ProviderRequest) (*domain.ProviderResponse, error) {
	model := p.client.GenerativeModel(req.Model)

	resp, err := model.GenerateContent(ctx, buildParts(req)...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return blockedResponse(blocked), nil
		}
		return nil, err
	}
	return toProviderResponse(resp), nil
}

func buildParts(req domain.ProviderRequest) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Images)+2)
	parts = append(parts, genai.Text(req.Prompt))
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MimeType, Data: img.Data})
	}
	// The SDK exposes no image config, so the aspect ratio travels as an instruction.
	if ar := strings.TrimSpace(req.AspectRatio); ar != "" {
		parts = append(parts, genai.Text("Output image aspect ratio: "+ar))
	}
	return parts
}

func blockedResponse(blocked *genai.BlockedError) *domain.ProviderResponse {
	out := &domain.ProviderResponse{}
	if blocked.Candidate != nil {
		out.FinishReason = finishReason(blocked.Candidate.FinishReason)
	}
	if blocked.PromptFeedback != nil {
		out.BlockReason = blockReason(blocked.PromptFeedback.BlockReason)
	}
	if out.FinishReason == "" && out.BlockReason == "" {
		out.BlockReason = "SAFETY"
	}
	return out
}

func toProviderResponse(resp *genai.GenerateContentResponse) *domain.ProviderResponse {
	out := &domain.ProviderResponse{}
	if resp == nil {
		return out
	}
	if resp.PromptFeedback != nil {
		out.BlockReason = blockReason(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}

	candidate := resp.Candidates[0]
	out.FinishReason = finishReason(candidate.FinishReason)
	if candidate.Content == nil {
		return out
	}
	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			out.Parts = append(out.Parts, domain.ProviderPart{Text: string(v)})
		case genai.Blob:
			out.Parts = append(out.Parts, domain.ProviderPart{MimeType: v.MIMEType, Data: v.Data})
		}
	}
	return out
}

// imageFinishReasons are image-model codes newer than the pinned proto enum.
var imageFinishReasons = map[genai.FinishReason]string{
	11: "IMAGE_SAFETY",
	12: "IMAGE_PROHIBITED_CONTENT",
}

func finishReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonUnspecified:
		return ""
	case genai.FinishReasonStop:
		return "STOP"
	case genai.FinishReasonMaxTokens:
		return "MAX_TOKENS"
	case genai.FinishReasonSafety:
		return "SAFETY"
	case genai.FinishReasonRecitation:
		return "RECITATION"
	case genai.FinishReasonBlocklist:
		return "BLOCKLIST"
	case genai.FinishReasonProhibitedContent:
		return "PROHIBITED_CONTENT"
	case genai.FinishReasonSpii:
		return "SPII"
	}
	if name, ok := aiplatformpb.Candidate_FinishReason_name[int32(r)]; ok {
		return name
	}
	if name, ok := imageFinishReasons[r]; ok {
		return name
	}
	return "OTHER"
}

// blockReason folds every prompt block into a content-policy reason.
func blockReason(r genai.BlockedReason) string {
	switch r {
	case genai.BlockedReasonUnspecified:
		return ""
	case genai.BlockedReasonSafety:
		return "SAFETY"
	default:
		return "BLOCKLIST"
	}
}

var _ domain.GenerationProvider = (*Provider)(nil)
