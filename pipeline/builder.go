package pipeline

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/crtweb/slangcore/backend"
	"github.com/crtweb/slangcore/frontend"
	"github.com/crtweb/slangcore/include"
	"github.com/crtweb/slangcore/preset"
)

// ShaderLoader fetches the raw text of a shader or include target by path.
type ShaderLoader func(path string) (string, error)

// Builder turns a resolved Preset and its shader sources into a Graph.
type Builder interface {
	// Build compiles every pass (in parallel) and wires render targets and
	// semantic bindings into a Graph.
	//
	// Parameters:
	//   - p: the resolved preset
	//   - load: callback fetching shader/include source text by path
	//   - sourceWidth/sourceHeight: the host's input texture dimensions, the
	//     basis for scale_type = source
	//   - viewportWidth/viewportHeight: the basis for scale_type = viewport
	Build(p *preset.Preset, load ShaderLoader, sourceWidth, sourceHeight, viewportWidth, viewportHeight int) (*Graph, error)
}

type builder struct {
	frontend     frontend.Frontend
	backend      backend.Backend
	expander     include.Expander
	backendOpts  backend.Options
	computePool  worker.DynamicWorkerPool
}

// BuilderOption configures a Builder at construction time.
type BuilderOption func(*builder)

// WithBackendOptions overrides the backend.Options passed to every pass
// compile (e.g. a custom TextureSizeFallbackWidth/TextureSizeFallbackHeight).
func WithBackendOptions(opts backend.Options) BuilderOption {
	return func(b *builder) { b.backendOpts = opts }
}

// NewBuilder creates a new PipelineBuilder. computeWorkers bounds the
// worker pool used to compile passes in parallel; pass 0 to default to a
// small fixed pool.
func NewBuilder(computeWorkers int, opts ...BuilderOption) Builder {
	if computeWorkers <= 0 {
		computeWorkers = 4
	}
	b := &builder{
		frontend:    frontend.NewFrontend(),
		backend:     backend.NewBackend(),
		expander:    include.NewExpander(),
		computePool: worker.NewDynamicWorkerPool(computeWorkers, 256, 1*time.Second),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Builder = &builder{}

func (b *builder) Build(p *preset.Preset, load ShaderLoader, sourceWidth, sourceHeight, viewportWidth, viewportHeight int) (*Graph, error) {
	compiled, err := b.compilePasses(p, load)
	if err != nil {
		return nil, err
	}

	aliasToIndex := make(map[string]int)
	for _, ps := range p.Passes {
		if ps.Alias != "" {
			aliasToIndex[ps.Alias] = ps.Index
		}
	}

	targets := make([]*RenderTarget, len(p.Passes))
	for i, ps := range p.Passes {
		var inputW, inputH int
		if i == 0 {
			inputW, inputH = sourceWidth, sourceHeight
		} else {
			inputW, inputH = targets[i-1].Width, targets[i-1].Height
		}
		w, h, err := computeTargetSize(ps, inputW, inputH, viewportWidth, viewportHeight)
		if err != nil {
			return nil, &Error{Kind: ErrorKindSizeZeroTarget, PassIndex: ps.Index, Detail: err.Error()}
		}
		targets[i] = &RenderTarget{
			Width:        w,
			Height:       h,
			Format:       colorFormatFor(ps),
			FilterLinear: ps.FilterLinear,
			Mipmap:       ps.MipmapInput,
			Wrap:         ps.WrapMode,
		}
	}

	feedbacks := make(map[string]*FeedbackPair)
	passes := make([]Pass, len(p.Passes))
	for i, ps := range p.Passes {
		bindings, err := resolveBindings(compiled[i], i, aliasToIndex, p.Textures)
		if err != nil {
			return nil, err
		}
		for _, bnd := range bindings {
			if bnd.Source == BindingSourceAliasFeedback {
				alias := bnd.TextureName
				if _, ok := feedbacks[alias]; !ok {
					aliasIdx, ok := aliasToIndex[alias]
					if !ok {
						return nil, &Error{Kind: ErrorKindUnknownAlias, PassIndex: ps.Index, Detail: fmt.Sprintf("feedback references undeclared alias %q", alias)}
					}
					shape := *targets[aliasIdx]
					prev := shape
					feedbacks[alias] = &FeedbackPair{Alias: alias, Current: &shape, Previous: &prev}
				}
			}
		}
		passes[i] = Pass{
			Index:            ps.Index,
			Alias:            ps.Alias,
			Compiled:         compiled[i],
			Target:           targets[i],
			Bindings:         bindings,
			RenderToViewport: i == len(p.Passes)-1,
		}
	}

	return &Graph{Passes: passes, Feedbacks: feedbacks}, nil
}

// compilePasses fans the independent, side-effect-free frontend->backend
// compile of each pass out across the worker pool, joined with a
// WaitGroup barrier before returning — mirroring scene.PrepareCompute's
// parallel-CPU-prep-then-barrier shape.
func (b *builder) compilePasses(p *preset.Preset, load ShaderLoader) ([]*backend.CompiledPass, error) {
	results := make([]*backend.CompiledPass, len(p.Passes))
	errs := make([]error, len(p.Passes))

	var wg sync.WaitGroup
	for i, ps := range p.Passes {
		wg.Add(1)
		idx, passCopy := i, ps
		b.computePool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				compiled, err := b.compileOne(passCopy, load)
				if err != nil {
					errs[idx] = err
					return nil, err
				}
				results[idx] = compiled
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (b *builder) compileOne(ps preset.PassSpec, load ShaderLoader) (*backend.CompiledPass, error) {
	raw, err := load(ps.ShaderPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: pass %d: loading %q: %w", ps.Index, ps.ShaderPath, err)
	}
	expanded, err := b.expander.Expand(ps.ShaderPath, raw, include.Resolver(load))
	if err != nil {
		return nil, err
	}
	extracted, err := b.frontend.Extract(expanded.Text)
	if err != nil {
		return nil, err
	}
	opts := b.backendOpts
	opts.Alias = ps.Alias
	return b.backend.Compile(extracted, opts)
}

func colorFormatFor(ps preset.PassSpec) ColorFormat {
	if ps.FloatFramebuffer || ps.SrgbFramebuffer {
		return ColorFormatRGBA16F
	}
	return ColorFormatRGBA8
}

func computeTargetSize(ps preset.PassSpec, inputW, inputH, viewportW, viewportH int) (int, int, error) {
	w := computeDimension(ps.ScaleTypeX, ps.ScaleX, inputW, viewportW)
	h := computeDimension(ps.ScaleTypeY, ps.ScaleY, inputH, viewportH)
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("computed size %dx%d is zero or negative", w, h)
	}
	return w, h, nil
}

func computeDimension(scaleType preset.ScaleType, scale float64, sourceDim, viewportDim int) int {
	switch scaleType {
	case preset.ScaleTypeAbsolute:
		return int(scale)
	case preset.ScaleTypeViewport:
		return int(float64(viewportDim) * scale)
	default: // preset.ScaleTypeSource
		return int(float64(sourceDim) * scale)
	}
}

var aliasFeedbackRegex = regexp.MustCompile(`^(\w+)Feedback$`)
var originalHistoryRegex = regexp.MustCompile(`^OriginalHistory(\d+)$`)

// resolveBindings classifies every sampler a compiled pass declares into a
// semantic binding: Source, Original, an earlier pass's alias, that alias's
// previous-frame feedback, an OriginalHistory<k> slot, or an external
// texture.
func resolveBindings(compiled *backend.CompiledPass, passIndex int, aliasToIndex map[string]int, textures map[string]preset.TextureSpec) ([]SemanticBinding, error) {
	var bindings []SemanticBinding
	for _, sampler := range compiled.SamplerBindings {
		name := sampler.Name
		switch {
		case name == "Source":
			prevIdx := passIndex - 1
			if prevIdx < 0 {
				bindings = append(bindings, SemanticBinding{Name: name, Source: BindingSourceOriginal})
			} else {
				bindings = append(bindings, SemanticBinding{Name: name, Source: BindingSourcePreviousPass, PassIndex: prevIdx})
			}
		case name == "Original":
			bindings = append(bindings, SemanticBinding{Name: name, Source: BindingSourceOriginal})
		case originalHistoryRegex.MatchString(name):
			m := originalHistoryRegex.FindStringSubmatch(name)
			depth := 0
			fmt.Sscanf(m[1], "%d", &depth)
			bindings = append(bindings, SemanticBinding{Name: name, Source: BindingSourceHistory, HistoryDepth: depth})
		case aliasFeedbackRegex.MatchString(name):
			m := aliasFeedbackRegex.FindStringSubmatch(name)
			alias := m[1]
			if _, ok := aliasToIndex[alias]; !ok {
				return nil, &Error{Kind: ErrorKindUnknownAlias, PassIndex: passIndex, Detail: fmt.Sprintf("%q references undeclared alias %q", name, alias)}
			}
			bindings = append(bindings, SemanticBinding{Name: name, Source: BindingSourceAliasFeedback, TextureName: alias})
		default:
			if idx, ok := aliasToIndex[name]; ok {
				if idx >= passIndex {
					return nil, &Error{Kind: ErrorKindCycle, PassIndex: passIndex, Detail: fmt.Sprintf("pass samples alias %q from a non-earlier pass", name)}
				}
				bindings = append(bindings, SemanticBinding{Name: name, Source: BindingSourceAlias, PassIndex: idx})
				continue
			}
			if _, ok := textures[name]; ok {
				bindings = append(bindings, SemanticBinding{Name: name, Source: BindingSourceExternalTexture, TextureName: name})
				continue
			}
			return nil, &Error{Kind: ErrorKindUnknownAlias, PassIndex: passIndex, Detail: fmt.Sprintf("sampler %q matches no semantic binding", name)}
		}
	}
	return bindings, nil
}
