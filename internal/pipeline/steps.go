package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/replaysheet/internal/decode"
	"github.com/nao1215/replaysheet/internal/locate"
	"github.com/nao1215/replaysheet/internal/model"
	"github.com/nao1215/replaysheet/internal/replay"
)

// Step errors for missing input from an earlier step.
var (
	// ErrNoPayload is returned by DecodeStep when no payload was located.
	ErrNoPayload = errors.New("no record payload to decode")

	// ErrNoRecord is returned by ReconstructStep when no record was decoded.
	ErrNoRecord = errors.New("no decoded record to reconstruct")
)

// PageFetcher downloads a document page. *fetch.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StepOption configures the steps in this package.
type StepOption func(*stepConfig)

// stepConfig holds settings shared by all steps.
type stepConfig struct {
	logger *slog.Logger
}

// WithStepLogger sets the logger a step writes to.
func WithStepLogger(logger *slog.Logger) StepOption {
	return func(c *stepConfig) {
		c.logger = logger
	}
}

func newStepConfig(opts []StepOption) stepConfig {
	c := stepConfig{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// FetchStep downloads the document page.
type FetchStep struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewFetchStep creates a step that fetches extraction.URL.
func NewFetchStep(fetcher PageFetcher, opts ...StepOption) *FetchStep {
	c := newStepConfig(opts)
	return &FetchStep{fetcher: fetcher, logger: c.logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches the page and stores it in the extraction.
func (s *FetchStep) Do(ctx context.Context, extraction *model.Extraction) error {
	page, err := s.fetcher.Fetch(ctx, extraction.URL)
	if err != nil {
		return err
	}

	extraction.Page = page
	extraction.PageSize = len(page)

	s.logger.Debug("page fetched", "url", extraction.URL, "bytes", len(page))
	return nil
}

// LocateStep finds the record payload in the fetched page.
type LocateStep struct {
	logger *slog.Logger
}

// NewLocateStep creates a payload locating step.
func NewLocateStep(opts ...StepOption) *LocateStep {
	c := newStepConfig(opts)
	return &LocateStep{logger: c.logger}
}

// Name returns the step name.
func (s *LocateStep) Name() string {
	return "locate"
}

// Do locates the payload. A page without one yields locate.ErrNotFound,
// typically because the document is private or the URL is not a sheet.
func (s *LocateStep) Do(_ context.Context, extraction *model.Extraction) error {
	payload, err := locate.Locate(extraction.Page)
	if err != nil {
		return err
	}

	extraction.Payload = payload

	s.logger.Debug("payload located", "url", extraction.URL, "bytes", len(payload))
	return nil
}

// DecodeStep parses the located payload into a record.
type DecodeStep struct {
	logger *slog.Logger
}

// NewDecodeStep creates a payload decoding step.
func NewDecodeStep(opts ...StepOption) *DecodeStep {
	c := newStepConfig(opts)
	return &DecodeStep{logger: c.logger}
}

// Name returns the step name.
func (s *DecodeStep) Name() string {
	return "decode"
}

// Do decodes extraction.Payload.
func (s *DecodeStep) Do(_ context.Context, extraction *model.Extraction) error {
	if extraction.Payload == "" {
		return ErrNoPayload
	}

	record, err := decode.Decode(extraction.Payload)
	if err != nil {
		return err
	}

	extraction.Record = record

	s.logger.Debug("payload decoded",
		"url", extraction.URL,
		"texts", len(record.Flyweight.Texts),
		"actionBytes", len(record.Actions),
	)
	return nil
}

// ReconstructStep replays the decoded record into a table.
type ReconstructStep struct {
	reconstructor *replay.Reconstructor
	logger        *slog.Logger
}

// NewReconstructStep creates a table reconstruction step.
// A nil reconstructor uses replay defaults.
func NewReconstructStep(reconstructor *replay.Reconstructor, opts ...StepOption) *ReconstructStep {
	c := newStepConfig(opts)
	if reconstructor == nil {
		reconstructor = replay.New(replay.WithLogger(c.logger))
	}
	return &ReconstructStep{reconstructor: reconstructor, logger: c.logger}
}

// Name returns the step name.
func (s *ReconstructStep) Name() string {
	return "reconstruct"
}

// Do rebuilds the table and fills in the table, diagnostics and fingerprint.
// An empty table is a valid outcome, not an error.
func (s *ReconstructStep) Do(_ context.Context, extraction *model.Extraction) error {
	if extraction.Record == nil {
		return ErrNoRecord
	}

	result, err := s.reconstructor.Reconstruct(extraction.Record.TextPool(), extraction.Record.Actions)
	if err != nil {
		return err
	}

	extraction.Table = result.Table
	extraction.Diagnostics = result.Diagnostics
	extraction.FragmentCount = result.FragmentCount
	if result.ExcludedStyle.Valid {
		extraction.ExcludedStyle = result.ExcludedStyle.Name
	}
	extraction.Fingerprint = result.Table.Fingerprint()

	return nil
}

// DefaultPipelineConfig holds reconstruction settings for DefaultPipeline.
type DefaultPipelineConfig struct {
	// YTolerance is the row-splitting threshold.
	YTolerance float64

	// HeaderFilter enables removal of the canvas gutter labels.
	HeaderFilter bool
}

// DefaultPipelineOption configures DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineYTolerance sets the row-splitting threshold.
func WithPipelineYTolerance(tolerance float64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.YTolerance = tolerance
	}
}

// WithPipelineHeaderFilter enables or disables gutter removal.
func WithPipelineHeaderFilter(enabled bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.HeaderFilter = enabled
	}
}

// DefaultPipeline creates the standard fetch, locate, decode, reconstruct
// pipeline.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts reconstruction options (WithPipelineYTolerance, etc).
// Request settings such as cookies and timeouts belong to the fetcher.
func DefaultPipeline(fetcher PageFetcher, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		YTolerance:   replay.DefaultYTolerance,
		HeaderFilter: true,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	stepOpts := []StepOption{WithStepLogger(p.logger)}
	reconstructor := replay.New(
		replay.WithYTolerance(cfg.YTolerance),
		replay.WithHeaderFilter(cfg.HeaderFilter),
		replay.WithLogger(p.logger),
	)

	p.AddSteps(
		NewFetchStep(fetcher, stepOpts...),
		NewLocateStep(stepOpts...),
		NewDecodeStep(stepOpts...),
		NewReconstructStep(reconstructor, stepOpts...),
	)

	return p
}
