package glyphcast

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

/*
Player drives a loaded source through three independent lanes:

	preview   ShowFrame   one frame, random access, cached
	playback  Play/Pause  sequential loop, cached
	save      SaveTo      full fresh pass, never cached

Each lane runs at most one job; starting a new job cancels the lane's
previous one. Lanes only notice cancellation between frames, so a frame
already being decoded finishes before the job stops. Results come back
on the Events channel.
*/
type Player struct {
	mu       sync.RWMutex
	source   MediaSource
	settings Settings

	cache    *ResultCache
	renderer *Renderer
	logger   *zap.Logger
	events   chan Event
	saveOpts SaveOptions

	root   context.Context
	cancel context.CancelFunc

	preview  lane
	playback lane
	save     lane
}

// Event is a message from a player lane. The set is closed: FrameEvent,
// SaveProgressEvent, SaveDoneEvent and ErrorEvent.
type Event interface{ isEvent() }

// FrameEvent carries a processed frame ready to display.
type FrameEvent struct {
	Frame ProcessedFrame
}

// SaveProgressEvent reports encode progress. Total is zero when the
// frame count is unknown.
type SaveProgressEvent struct {
	Done  int
	Total int
}

// SaveDoneEvent signals that a save finished and the file is complete.
type SaveDoneEvent struct {
	Path string
}

// ErrorEvent reports a failed lane job. Cancellation is not an error and
// produces no event.
type ErrorEvent struct {
	Err error
}

func (FrameEvent) isEvent()        {}
func (SaveProgressEvent) isEvent() {}
func (SaveDoneEvent) isEvent()     {}
func (ErrorEvent) isEvent()        {}

// lane is one job slot. Starting a job cancels the previous holder.
type lane struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (l *lane) start(parent context.Context) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	return ctx
}

func (l *lane) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

const (
	defaultCacheSize   = 500
	defaultEventBuffer = 64
)

type playerConfig struct {
	cacheSize   int
	eventBuffer int
	logger      *zap.Logger
	renderOpts  []RenderOpt
	saveOpts    SaveOptions
}

type PlayerOption func(*playerConfig)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) PlayerOption {
	return func(c *playerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheSize bounds the processed frame cache.
func WithCacheSize(n int) PlayerOption {
	return func(c *playerConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithRenderOpts configures the renderer saves go through.
func WithRenderOpts(opts ...RenderOpt) PlayerOption {
	return func(c *playerConfig) {
		c.renderOpts = append(c.renderOpts, opts...)
	}
}

// WithSaveOptions sets encoder defaults for SaveTo, like a fixed output
// frame rate or an alternate ffmpeg binary. Total and Progress are
// managed per save and ignored here.
func WithSaveOptions(opts SaveOptions) PlayerOption {
	return func(c *playerConfig) {
		c.saveOpts = opts
	}
}

func NewPlayer(opts ...PlayerOption) (*Player, error) {
	cfg := playerConfig{
		cacheSize:   defaultCacheSize,
		eventBuffer: defaultEventBuffer,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, err := NewResultCache(cfg.cacheSize)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		settings: DefaultSettings(),
		cache:    cache,
		renderer: NewRenderer(cfg.renderOpts...),
		logger:   cfg.logger,
		events:   make(chan Event, cfg.eventBuffer),
		saveOpts: cfg.saveOpts,
		root:     ctx,
		cancel:   cancel,
	}, nil
}

// Events is where lane results arrive. Sends never block: when the
// receiver falls behind, intermediate events are dropped rather than
// queued, so whatever arrives next is current. The channel is never
// closed; Close cancels every producer instead.
func (p *Player) Events() <-chan Event { return p.events }

// Load opens path and makes it the active source. Any running lane jobs
// are cancelled and the frame cache is cleared.
func (p *Player) Load(path string, opts ...SourceOption) (MediaInfo, error) {
	src, err := Open(path, opts...)
	if err != nil {
		return MediaInfo{}, err
	}

	p.preview.stop()
	p.playback.stop()
	p.save.stop()

	p.mu.Lock()
	old := p.source
	p.source = src
	p.mu.Unlock()
	p.cache.Clear()

	if old != nil {
		old.Close()
	}
	info := src.Info()
	p.logger.Info("source loaded",
		zap.String("path", info.Path),
		zap.String("kind", string(info.Kind)),
		zap.Int("frames", info.FrameCount),
	)
	return info, nil
}

// Info describes the active source.
func (p *Player) Info() (MediaInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.source == nil {
		return MediaInfo{}, ErrNoSource
	}
	return p.source.Info(), nil
}

// Apply replaces the active settings. Running jobs pick the change up at
// their next frame boundary; a save already in flight keeps the settings
// it started with.
func (p *Player) Apply(s Settings) {
	s = s.normalized()
	p.mu.Lock()
	p.settings = s
	p.mu.Unlock()
	p.cache.Clear()
	p.logger.Debug("settings applied", zap.String("fingerprint", s.Fingerprint()))
}

// Settings returns the active settings.
func (p *Player) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// ShowFrame processes frame i in the preview lane and publishes it as a
// FrameEvent. A preview already running is cancelled first.
func (p *Player) ShowFrame(i int) {
	ctx := p.preview.start(p.root)
	go func() {
		pf, err := p.frameAt(ctx, i)
		if err != nil {
			p.publish(ctx, ErrorEvent{Err: err})
			return
		}
		p.publish(ctx, FrameEvent{Frame: pf})
	}()
}

func (p *Player) frameAt(ctx context.Context, i int) (ProcessedFrame, error) {
	p.mu.RLock()
	src, s := p.source, p.settings
	p.mu.RUnlock()
	if src == nil {
		return ProcessedFrame{}, ErrNoSource
	}
	fp := s.Fingerprint()
	if pf, ok := p.cache.Get(i, fp); ok {
		return pf, nil
	}
	if err := ctx.Err(); err != nil {
		return ProcessedFrame{}, err
	}
	f, err := src.Frame(i)
	if err != nil {
		return ProcessedFrame{}, err
	}
	pf := ProcessFrame(f, s)
	p.cache.Put(i, fp, pf)
	return pf, nil
}

// Play starts looping playback in the playback lane. Frames arrive as
// FrameEvents paced by their durations, wrapping from the last frame
// back to the first until Pause or Close.
func (p *Player) Play() {
	ctx := p.playback.start(p.root)
	go p.playLoop(ctx)
}

// Pause stops playback. The current frame stays on screen; there is no
// resume position, Play starts over.
func (p *Player) Pause() {
	p.playback.stop()
}

func (p *Player) playLoop(ctx context.Context) {
	for {
		p.mu.RLock()
		src := p.source
		p.mu.RUnlock()
		if src == nil {
			p.publish(ctx, ErrorEvent{Err: ErrNoSource})
			return
		}

		iter := src.Frames()
		played := 0
		for iter.Next() {
			if ctx.Err() != nil {
				iter.Close()
				return
			}
			f := iter.Frame()
			p.mu.RLock()
			s := p.settings
			p.mu.RUnlock()
			fp := s.Fingerprint()
			pf, ok := p.cache.Get(f.Index, fp)
			if !ok {
				pf = ProcessFrame(f, s)
				p.cache.Put(f.Index, fp, pf)
			}
			p.publish(ctx, FrameEvent{Frame: pf})
			played++
			select {
			case <-time.After(time.Duration(f.DurationMS) * time.Millisecond):
			case <-ctx.Done():
				iter.Close()
				return
			}
		}
		err := iter.Err()
		iter.Close()
		if err != nil {
			p.publish(ctx, ErrorEvent{Err: err})
			return
		}
		if played == 0 {
			p.publish(ctx, ErrorEvent{Err: ErrEmptySequence})
			return
		}
	}
}

// SaveTo encodes the whole animation to path in the save lane, with the
// settings current at the call. The pass is always fresh: every frame is
// decoded and processed again rather than read from the cache, so the
// file never contains a stale frame. Progress arrives as
// SaveProgressEvents, then one SaveDoneEvent or ErrorEvent.
func (p *Player) SaveTo(path string) {
	ctx := p.save.start(p.root)
	go p.saveLoop(ctx, path)
}

func (p *Player) saveLoop(ctx context.Context, path string) {
	p.mu.RLock()
	src, s := p.source, p.settings
	p.mu.RUnlock()
	if src == nil {
		p.publish(ctx, ErrorEvent{Err: ErrNoSource})
		return
	}

	info := src.Info()
	p.logger.Info("save started", zap.String("path", path), zap.Int("frames", info.FrameCount))

	iter := src.Frames()
	defer iter.Close()
	seq := &renderSeq{ctx: ctx, iter: iter, settings: s, renderer: p.renderer}

	prog := make(chan Progress, 8)
	fwd := make(chan struct{})
	go func() {
		defer close(fwd)
		for pr := range prog {
			p.publish(ctx, SaveProgressEvent{Done: pr.Done, Total: pr.Total})
		}
	}()
	opts := p.saveOpts
	opts.Total = info.FrameCount
	opts.Progress = prog
	err := Save(ctx, path, seq, opts)
	close(prog)
	<-fwd

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.publish(ctx, ErrorEvent{Err: err})
		return
	}
	p.publish(ctx, SaveDoneEvent{Path: path})
}

// renderSeq feeds an encoder by processing and rendering frames straight
// off an iterator, checking for cancellation before each one.
type renderSeq struct {
	ctx      context.Context
	iter     *FrameIter
	settings Settings
	renderer *Renderer
}

func (s *renderSeq) Next() (*image.NRGBA, int, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, 0, err
	}
	if !s.iter.Next() {
		if err := s.iter.Err(); err != nil {
			return nil, 0, err
		}
		return nil, 0, io.EOF
	}
	f := s.iter.Frame()
	return s.renderer.Render(ProcessFrame(f, s.settings)), f.DurationMS, nil
}

// publish delivers ev unless the job was cancelled or the receiver is
// not keeping up.
func (p *Player) publish(ctx context.Context, ev Event) {
	if ctx.Err() != nil {
		return
	}
	select {
	case p.events <- ev:
	default:
		p.logger.Debug("event dropped", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

// Close cancels every lane and releases the source. Jobs notice at their
// next frame boundary. The player cannot be reused after Close.
func (p *Player) Close() error {
	p.cancel()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.source == nil {
		return nil
	}
	err := p.source.Close()
	p.source = nil
	return err
}
