// Package runtime selects the concrete inference resource implementation.
// The audio model itself runs out of process; see the sidecar package for
// the production runtime and the mock package for tests.
package runtime

import (
	"fmt"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/config"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/runtime/mock"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/runtime/sidecar"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// NewRuntime constructs the configured model runtime.
// Called once at server startup.
func NewRuntime(cfg config.ModelConfig) (models.ModelRuntime, error) {
	switch cfg.Runtime {
	case "sidecar":
		return sidecar.NewClient(cfg.Sidecar), nil
	case "mock":
		return mock.NewRuntime(), nil
	default:
		return nil, fmt.Errorf("unknown model runtime %q: must be one of sidecar, mock", cfg.Runtime)
	}
}
