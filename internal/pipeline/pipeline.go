// Package pipeline orchestrates the meeting processing flow: speaker
// diarization, transcription, speaker attribution, merging, optional
// attendee name correction, summarization, and archival.
//
// Two execution modes are supported. Sequential mode diarizes first,
// cuts the recording into speech segments, and transcribes each segment
// with a bounded worker pool. Parallel mode diarizes and transcribes
// the whole recording concurrently and reconciles the two outputs by
// timestamp afterwards.
//
// Diarization and transcription failures abort a run. Summarization and
// archival failures do not; the transcript is the primary artifact and
// is always returned when reconciliation succeeds.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/minutescribe/internal/archive"
	"github.com/MrWong99/minutescribe/internal/observe"
	"github.com/MrWong99/minutescribe/internal/segment"
	"github.com/MrWong99/minutescribe/internal/transcript"
	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
)

// Mode selects how diarization and transcription are scheduled.
type Mode string

const (
	// ModeSequential diarizes first and transcribes the resulting
	// speech segments one by one.
	ModeSequential Mode = "sequential"

	// ModeParallel runs diarization and whole-file transcription
	// concurrently and correlates their outputs by timestamp.
	ModeParallel Mode = "parallel"
)

// IsValid reports whether m is a known execution mode.
func (m Mode) IsValid() bool {
	return m == ModeSequential || m == ModeParallel
}

// defaultSegmentWorkers bounds concurrent segment transcriptions in
// sequential mode.
const defaultSegmentWorkers = 4

// Result is the outcome of one pipeline run.
type Result struct {
	// Utterances is the merged, speaker-attributed transcript.
	Utterances []transcript.Utterance

	// Transcript is the rendered "speaker: text" form of Utterances.
	Transcript string

	// Summary is the LLM-generated meeting summary. Empty when no
	// summarizer is configured, the recording had no speech, or
	// summarization failed.
	Summary string

	// Speakers lists the distinct diarized speakers in order of first
	// appearance.
	Speakers []string

	// Corrections lists attendee name corrections applied to the
	// transcript.
	Corrections []transcript.Correction

	// NoSpeech is set when diarization found no speaker turns. The run
	// still counts as a success.
	NoSpeech bool

	// ArchiveID is the stored meeting's ID, or zero when no archive is
	// configured or the save failed.
	ArchiveID int64
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithMode selects the execution mode. Defaults to ModeParallel.
func WithMode(m Mode) Option {
	return func(p *Pipeline) { p.mode = m }
}

// WithTranscriber sets the whole-file transcriber used in parallel mode.
func WithTranscriber(t asr.Transcriber) Option {
	return func(p *Pipeline) { p.transcriber = t }
}

// WithSegmentTranscriber sets the per-segment transcriber used in
// sequential mode.
func WithSegmentTranscriber(t asr.SegmentTranscriber) Option {
	return func(p *Pipeline) { p.segTranscriber = t }
}

// WithSummarizer enables meeting summarization.
func WithSummarizer(s summarize.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithCorrector enables attendee name correction on merged utterances.
func WithCorrector(c *transcript.Corrector) Option {
	return func(p *Pipeline) { p.corrector = c }
}

// WithStore enables meeting archival.
func WithStore(s archive.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithMetrics overrides the default metrics instance. Used in tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithSegmentWorkers bounds concurrent segment transcriptions in
// sequential mode. Defaults to 4.
func WithSegmentWorkers(n int) Option {
	return func(p *Pipeline) { p.segmentWorkers = n }
}

// Pipeline processes meeting recordings. It is safe for concurrent use;
// each Process call is independent.
type Pipeline struct {
	diarizer       diarization.Provider
	transcriber    asr.Transcriber
	segTranscriber asr.SegmentTranscriber
	summarizer     summarize.Summarizer
	corrector      *transcript.Corrector
	store          archive.Store
	metrics        *observe.Metrics
	mode           Mode
	segmentWorkers int
}

// New creates a Pipeline around the given diarization provider. The
// selected mode determines which transcriber option is required:
// parallel mode needs WithTranscriber, sequential mode needs
// WithSegmentTranscriber.
func New(diarizer diarization.Provider, opts ...Option) (*Pipeline, error) {
	if diarizer == nil {
		return nil, errors.New("pipeline: diarizer must not be nil")
	}
	p := &Pipeline{
		diarizer:       diarizer,
		mode:           ModeParallel,
		segmentWorkers: defaultSegmentWorkers,
	}
	for _, o := range opts {
		o(p)
	}

	if !p.mode.IsValid() {
		return nil, fmt.Errorf("pipeline: unknown mode %q", p.mode)
	}
	if p.mode == ModeParallel && p.transcriber == nil {
		return nil, errors.New("pipeline: parallel mode requires a whole-file transcriber")
	}
	if p.mode == ModeSequential && p.segTranscriber == nil {
		return nil, errors.New("pipeline: sequential mode requires a segment transcriber")
	}
	if p.segmentWorkers <= 0 {
		p.segmentWorkers = defaultSegmentWorkers
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p, nil
}

// Mode returns the configured execution mode.
func (p *Pipeline) Mode() Mode { return p.mode }

// Process runs the full pipeline over one recording. title is an
// optional label carried into the archive.
func (p *Pipeline) Process(ctx context.Context, wav audio.Waveform, title string) (*Result, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.process")
	defer span.End()

	start := time.Now()
	res, err := p.reconcile(ctx, wav)

	modeAttr := metric.WithAttributes(observe.Attr("mode", string(p.mode)))
	p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds(), modeAttr)

	switch {
	case err != nil:
		p.metrics.RecordMeeting(ctx, string(p.mode), "error")
		return nil, err
	case res.NoSpeech:
		p.metrics.RecordMeeting(ctx, string(p.mode), "no_speech")
	default:
		p.metrics.RecordMeeting(ctx, string(p.mode), "ok")
	}

	p.summarize(ctx, res)
	p.archiveResult(ctx, res, wav, title)
	return res, nil
}

// reconcile produces speaker-attributed utterances from the recording
// using the configured mode.
func (p *Pipeline) reconcile(ctx context.Context, wav audio.Waveform) (*Result, error) {
	var (
		labeled  []transcript.LabeledUnit
		ann      *diarization.Annotation
		strategy transcript.AttributionStrategy
		err      error
	)

	switch p.mode {
	case ModeSequential:
		labeled, ann, strategy, err = p.runSequential(ctx, wav)
	default:
		labeled, ann, strategy, err = p.runParallel(ctx, wav)
	}
	if err != nil {
		return nil, err
	}
	if ann.Len() == 0 {
		observe.Logger(ctx).Info("no speech detected, skipping transcription")
		return &Result{NoSpeech: true}, nil
	}

	p.countUnattributed(ctx, labeled, strategy)

	utterances := transcript.Merge(labeled)
	res := &Result{
		Utterances: utterances,
		Speakers:   ann.Speakers(),
	}
	if p.corrector != nil {
		res.Utterances, res.Corrections = p.corrector.Correct(res.Utterances)
	}
	res.Transcript = transcript.Render(res.Utterances)
	return res, nil
}

// runSequential diarizes the recording, cuts it into speech segments,
// and transcribes each segment with a bounded worker pool. A failed
// segment degrades to an error unit so the rest of the meeting
// survives.
func (p *Pipeline) runSequential(ctx context.Context, wav audio.Waveform) ([]transcript.LabeledUnit, *diarization.Annotation, transcript.AttributionStrategy, error) {
	ann, err := p.diarize(ctx, wav)
	if err != nil {
		return nil, nil, nil, err
	}
	if ann.Len() == 0 {
		return nil, ann, nil, nil
	}

	segments := segment.Split(wav, ann)
	units := make([]asr.Unit, len(segments))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.segmentWorkers)
	for i, seg := range segments {
		g.Go(func() error {
			text, err := p.segTranscriber.TranscribeSegment(gctx, seg.Audio)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				observe.Logger(gctx).Warn("segment transcription failed",
					"start", seg.Span.Start, "end", seg.Span.End, "error", err)
				p.metrics.SegmentFailures.Add(gctx, 1)
				text = asr.ErrorText
			}
			units[i] = asr.Unit{Span: seg.Span, Text: text}
			return nil
		})
	}
	err = g.Wait()
	p.recordStage(ctx, p.metrics.TranscriptionDuration, start, "transcription", err)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: transcription: %w", err)
	}

	strategy := transcript.RangeStrategy{}
	return strategy.Attribute(units, ann), ann, strategy, nil
}

// diarOutcome and asrOutcome carry one worker's result across the join.
type diarOutcome struct {
	turns []diarization.Turn
	err   error
}

type asrOutcome struct {
	units []asr.Unit
	err   error
}

// runParallel diarizes and transcribes the whole recording at the same
// time. Both workers are always joined before any error is reported, so
// neither request is abandoned mid-flight.
func (p *Pipeline) runParallel(ctx context.Context, wav audio.Waveform) ([]transcript.LabeledUnit, *diarization.Annotation, transcript.AttributionStrategy, error) {
	var (
		wg   sync.WaitGroup
		diar diarOutcome
		tr   asrOutcome
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		diar.turns, diar.err = p.diarizer.Diarize(ctx, wav)
		p.recordStage(ctx, p.metrics.DiarizationDuration, start, "diarization", diar.err)
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		tr.units, tr.err = p.transcriber.Transcribe(ctx, wav)
		p.recordStage(ctx, p.metrics.TranscriptionDuration, start, "transcription", tr.err)
	}()
	wg.Wait()

	if diar.err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: diarization: %w", diar.err)
	}
	ann := diarization.NewAnnotation(diar.turns)
	if ann.Len() == 0 {
		return nil, ann, nil, nil
	}
	if tr.err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: transcription: %w", tr.err)
	}

	strategy := transcript.StrategyFor(p.transcriber.Granularity())
	return strategy.Attribute(tr.units, ann), ann, strategy, nil
}

// diarize runs the diarization provider and wraps its turns into an
// annotation.
func (p *Pipeline) diarize(ctx context.Context, wav audio.Waveform) (*diarization.Annotation, error) {
	start := time.Now()
	turns, err := p.diarizer.Diarize(ctx, wav)
	p.recordStage(ctx, p.metrics.DiarizationDuration, start, "diarization", err)
	if err != nil {
		return nil, fmt.Errorf("pipeline: diarization: %w", err)
	}
	return diarization.NewAnnotation(turns), nil
}

// summarize fills res.Summary. Failures are logged but never abort the
// run.
func (p *Pipeline) summarize(ctx context.Context, res *Result) {
	if p.summarizer == nil || res.Transcript == "" {
		return
	}

	start := time.Now()
	summary, err := p.summarizer.Summarize(ctx, res.Transcript)
	p.recordStage(ctx, p.metrics.SummarizationDuration, start, "summarization", err)
	if err != nil {
		observe.Logger(ctx).Error("summarization failed, continuing without summary", "error", err)
		p.metrics.RecordProviderError(ctx, "summarizer", "summarize")
		return
	}
	res.Summary = summary
}

// archiveResult persists the run. Failures are logged but never abort
// the run.
func (p *Pipeline) archiveResult(ctx context.Context, res *Result, wav audio.Waveform, title string) {
	if p.store == nil {
		return
	}

	id, err := p.store.SaveMeeting(ctx, archive.Meeting{
		Title:           title,
		Mode:            string(p.mode),
		DurationSeconds: wav.Duration(),
		Speakers:        res.Speakers,
		NoSpeech:        res.NoSpeech,
		Transcript:      res.Transcript,
		Summary:         res.Summary,
	})
	if err != nil {
		observe.Logger(ctx).Error("failed to archive meeting", "error", err)
		return
	}
	res.ArchiveID = id
}

// countUnattributed records how many units could not be assigned to a
// diarized speaker.
func (p *Pipeline) countUnattributed(ctx context.Context, labeled []transcript.LabeledUnit, strategy transcript.AttributionStrategy) {
	var n int64
	for _, lu := range labeled {
		if lu.Speaker == transcript.SpeakerUnknown || lu.Speaker == transcript.SpeakerUnattributed {
			n++
		}
	}
	if n > 0 {
		p.metrics.UnattributedUnits.Add(ctx, n,
			metric.WithAttributes(observe.Attr("strategy", strategy.Name())))
	}
}

// recordStage times one pipeline stage and logs its completion.
func (p *Pipeline) recordStage(ctx context.Context, h metric.Float64Histogram, start time.Time, stage string, err error) {
	elapsed := time.Since(start)
	h.Record(ctx, elapsed.Seconds(), metric.WithAttributes(observe.Attr("mode", string(p.mode))))

	status := "ok"
	if err != nil {
		status = "error"
	}
	observe.Logger(ctx).Debug("pipeline stage finished",
		"stage", stage, "status", status, "duration", elapsed)
}
