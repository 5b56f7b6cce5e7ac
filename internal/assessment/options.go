package assessment

import (
	"github.com/openai/openai-go/v3/option"

	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(s *Service, clientOpts *[]option.RequestOption)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service, _ *[]option.RequestOption) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequestOptions appends extra OpenAI client options, used by tests
// to redirect and instrument requests.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(_ *Service, clientOpts *[]option.RequestOption) {
		*clientOpts = append(*clientOpts, opts...)
	}
}
