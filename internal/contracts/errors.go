package contracts

import (
	"errors"

	"github.com/wonny/stockpick/pkg/config"
)

// Error taxonomy. Wrap with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	// ErrDataUnavailable: a source returned nothing usable for one candidate
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInferenceFailure: summarization/classification errored or timed out
	ErrInferenceFailure = errors.New("inference failure")

	// ErrRenderFailure: chart generation failed
	ErrRenderFailure = errors.New("render failure")

	// ErrDeliveryFailure: the sink rejected a payload
	ErrDeliveryFailure = errors.New("delivery failure")

	// ErrConfiguration: missing credentials or invalid options, fatal before any network call
	ErrConfiguration = config.ErrConfiguration

	// ErrNoCandidates: every discovery surface came back empty
	ErrNoCandidates = errors.New("no candidates found")
)
