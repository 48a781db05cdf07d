package domain

import "strings"

// ImageInput is one base64-encoded image sent by the client.
type ImageInput struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GenerationRequest is the body of a generate call.
type GenerationRequest struct {
	DeviceID    string       `json:"deviceId"`
	Prompt      string       `json:"prompt"`
	Images      []ImageInput `json:"imageData"`
	AspectRatio string       `json:"aspectRatio"`
	ModelName   string       `json:"modelName,omitempty"`
}

// ProviderImage is a decoded image handed to the generation provider.
type ProviderImage struct {
	MimeType string
	Data     []byte
}

// ProviderRequest is what the orchestrator sends to the generation provider.
type ProviderRequest struct {
	Model       string
	Prompt      string
	Images      []ProviderImage
	AspectRatio string
}

// ProviderPart is one piece of generated content.
type ProviderPart struct {
	Text     string
	MimeType string
	Data     []byte
}

// ProviderResponse is the provider's answer reduced to what classification needs.
// FinishReason and BlockReason use upper-case provider reason codes, e.g. "SAFETY".
type ProviderResponse struct {
	FinishReason string
	BlockReason  string
	Parts        []ProviderPart
}

// safetyReasons are provider refusals that are never billed.
var safetyReasons = map[string]struct{}{
	"SAFETY":                   {},
	"IMAGE_SAFETY":             {},
	"BLOCKLIST":                {},
	"PROHIBITED_CONTENT":       {},
	"IMAGE_PROHIBITED_CONTENT": {},
	"SPII":                     {},
	"RECITATION":               {},
	"LANGUAGE":                 {},
}

// IsSafetyReason reports whether a finish or block reason is a content-policy rejection.
func IsSafetyReason(reason string) bool {
	_, ok := safetyReasons[strings.ToUpper(strings.TrimSpace(reason))]
	return ok
}

// Outcome is the classification of one provider call. The set of
// implementations is closed: OutcomeSuccess, OutcomeSafetyRejected,
// OutcomeEmpty, OutcomeTimeout and OutcomeProviderError.
type Outcome interface {
	outcome()
	Label() string
}

type OutcomeSuccess struct {
	ImageURL string
	Text     string
}

type OutcomeSafetyRejected struct {
	Reason string
}

type OutcomeEmpty struct{}

type OutcomeTimeout struct{}

type OutcomeProviderError struct {
	Err error
}

func (OutcomeSuccess) outcome()        {}
func (OutcomeSafetyRejected) outcome() {}
func (OutcomeEmpty) outcome()          {}
func (OutcomeTimeout) outcome()        {}
func (OutcomeProviderError) outcome()  {}

func (OutcomeSuccess) Label() string        { return "success" }
func (OutcomeSafetyRejected) Label() string { return "safety_rejected" }
func (OutcomeEmpty) Label() string          { return "empty" }
func (OutcomeTimeout) Label() string        { return "timeout" }
func (OutcomeProviderError) Label() string  { return "provider_error" }

// GenerationResult is returned for a successful or safety-rejected generation.
type GenerationResult struct {
	ImageURL    string
	Text        string
	SafetyBlock bool
	Reason      string
	Tier        Tier
	Quota       QuotaSnapshot
}
