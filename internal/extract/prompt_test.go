package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/extract"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

func TestPromptBuild_Deterministic(t *testing.T) {
	b := extract.NewPromptBuilder(extract.DefaultSchema())
	req := models.ExtractionRequest{
		Audio:         models.AudioClip{Data: []byte("xxx"), MIME: "audio/wav"},
		KnownCustomer: "Acme Corp",
		Transcript:    "bill acme for three widgets",
	}

	assert.Equal(t, b.Build(req), b.Build(req), "same request must produce the same prompt")
}

func TestPromptBuild_ContainsAllMarkers(t *testing.T) {
	b := extract.NewPromptBuilder(extract.DefaultSchema())
	prompt := b.Build(models.ExtractionRequest{})

	for _, marker := range []string{
		"CUSTOMER", "ADDRESS", "INVOICE", "DATE", "DUE",
		"CURRENCY", "ITEM", "TAX_RATE", "SUBTOTAL", "TOTAL", "NOTES",
	} {
		assert.Contains(t, prompt, marker+":")
	}
}

func TestPromptBuild_OptionalContext(t *testing.T) {
	b := extract.NewPromptBuilder(extract.DefaultSchema())

	bare := b.Build(models.ExtractionRequest{})
	assert.NotContains(t, bare, "Prior context")
	assert.NotContains(t, bare, "transcript of the audio")

	withCustomer := b.Build(models.ExtractionRequest{KnownCustomer: "  John Doe "})
	assert.Contains(t, withCustomer, "the client is most likely John Doe.")

	withTranscript := b.Build(models.ExtractionRequest{Transcript: "two keyboards please"})
	assert.Contains(t, withTranscript, "two keyboards please")
}

func TestPromptBuild_WhitespaceOnlyContextIgnored(t *testing.T) {
	b := extract.NewPromptBuilder(extract.DefaultSchema())
	prompt := b.Build(models.ExtractionRequest{KnownCustomer: "   ", Transcript: "\t\n"})

	assert.NotContains(t, prompt, "Prior context")
	assert.Equal(t, b.Build(models.ExtractionRequest{}), prompt)
}

func TestPromptBuild_AudioBytesIrrelevant(t *testing.T) {
	// The prompt depends on the request context only, never the clip bytes.
	b := extract.NewPromptBuilder(extract.DefaultSchema())
	a := b.Build(models.ExtractionRequest{Audio: models.AudioClip{Data: []byte("aaa")}})
	c := b.Build(models.ExtractionRequest{Audio: models.AudioClip{Data: []byte("ccc")}})
	assert.Equal(t, a, c)
}

func TestPromptBuild_LabelPerLine(t *testing.T) {
	b := extract.NewPromptBuilder(extract.DefaultSchema())
	prompt := b.Build(models.ExtractionRequest{})

	lines := strings.Split(prompt, "\n")
	assert.Greater(t, len(lines), 10)
}
