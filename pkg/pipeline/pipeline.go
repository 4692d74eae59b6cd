package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/go-carry/internal/store"
	"github.com/askiada/go-carry/pkg/pipeline/model"
)

// Pipeline is an ordered chain of steps applied to a value.
// Steps can be added until the first run, after which the pipeline is locked.
type Pipeline struct {
	id           uuid.UUID
	name         string
	context      any
	casterKind   CasterKind
	customCaster Caster
	caster       Caster
	castFirst    bool
	hooks        []model.PipelineOption
	logger       zerolog.Logger

	mu      sync.Mutex
	steps   []*registration
	locked  bool
	working bool
	history *store.Stack[*Transport]
}

// Info is the run log of a pipeline.
type Info struct {
	Context any
	// Runs holds one snapshot per run, most recent first.
	Runs []Snapshot
}

// New creates a new pipeline.
func New(opts ...Option) (*Pipeline, error) {
	pipe := &Pipeline{
		id:      uuid.New(),
		logger:  zerolog.Nop(),
		history: store.NewStack[*Transport](),
	}
	for _, opt := range opts {
		opt(pipe)
	}

	if pipe.name == "" {
		pipe.name = "pipeline-" + pipe.id.String()[:8]
	}

	if pipe.customCaster != nil && pipe.casterKind != NoCast {
		return nil, errors.Wrapf(ErrArgument, "caster %s and a custom caster are mutually exclusive", pipe.casterKind)
	}
	caster, err := pipe.casterKind.Caster()
	if err != nil {
		return nil, err
	}
	pipe.caster = caster
	if pipe.customCaster != nil {
		pipe.caster = pipe.customCaster
	}

	for _, hook := range pipe.hooks {
		err := hook.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Pipeline {
	pipe, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return pipe
}

func (p *Pipeline) ID() uuid.UUID { return p.id }

func (p *Pipeline) Name() string { return p.name }

func (p *Pipeline) Context() any { return p.context }

// Locked reports whether the pipeline has been run at least once.
func (p *Pipeline) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.locked
}

// Working reports whether a run is in progress.
func (p *Pipeline) Working() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.working
}

// Len returns the number of registered steps.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.steps)
}

// Steps returns the details of the registered steps in execution order.
func (p *Pipeline) Steps() []model.StepInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	steps := make([]model.StepInfo, 0, len(p.steps))
	for _, reg := range p.steps {
		steps = append(steps, *reg.details)
	}

	return steps
}

// Pipe appends step to the pipeline. The extra args are passed to the step after the transport.
func (p *Pipeline) Pipe(step Step, args ...any) (*Pipeline, error) {
	if step == nil {
		return nil, errors.Wrap(ErrArgument, "step must be set")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.locked {
		return nil, errors.Wrap(ErrState, "can't pipe a step on a locked pipeline")
	}
	if p.working {
		return nil, errors.Wrap(ErrState, "can't pipe a step while the pipeline works")
	}

	parent := model.Marker(model.StartStep, p.name)
	if len(p.steps) > 0 {
		parent = p.steps[len(p.steps)-1].details
	}
	details := describeStep(p.name, len(p.steps)+1, step, args)

	for _, hook := range p.hooks {
		err := hook.PrepareStep(parent, details)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to prepare step %s", details.Key())
		}
	}

	p.steps = append(p.steps, &registration{
		step:    step,
		args:    append([]any(nil), args...),
		details: details,
	})

	return p, nil
}

// MustPipe is like Pipe but panics on error. It allows fluent construction.
func (p *Pipeline) MustPipe(step Step, args ...any) *Pipeline {
	pipe, err := p.Pipe(step, args...)
	if err != nil {
		panic(err)
	}

	return pipe
}

// Apply runs every step on initial and returns the final carry.
// A pipeline without steps returns initial as is.
func (p *Pipeline) Apply(initial any, opts ...ApplyOption) (any, error) {
	cfg := &applyConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	transport, steps, err := p.start(initial, cfg.transport)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return initial, nil
	}
	defer p.stop()

	return p.run(initial, cfg.cursor, transport, steps)
}

// Call runs the pipeline as a step of another pipeline, sharing its transport.
// carry becomes the starting cursor.
func (p *Pipeline) Call(carry, initial any, t *Transport, _ ...any) (any, error) {
	return p.Apply(initial, WithTransport(t), WithCursor(carry))
}

// Info returns the pipeline context and the snapshots of all runs since the last call, most recent first.
// Reading the info empties the run history.
func (p *Pipeline) Info() (Info, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.working {
		return Info{}, errors.Wrap(ErrState, "can't get info on a working pipeline")
	}

	for _, t := range p.history.Items() {
		if t.OwnerID() != p.id {
			return Info{}, errors.Wrapf(ErrAccess, "run started at %s used a transport owned by another pipeline", t.CreatedAt())
		}
	}

	transports := p.history.Drain()
	info := Info{
		Context: p.context,
		Runs:    make([]Snapshot, 0, len(transports)),
	}
	for _, t := range transports {
		snapshot, err := t.ExportFor(p)
		if err != nil {
			return info, err
		}
		info.Runs = append(info.Runs, snapshot)
	}

	return info, nil
}

func (p *Pipeline) start(initial any, t *Transport) (*Transport, []*registration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.working {
		return nil, nil, errors.Wrap(ErrState, "can't run a pipeline that is already working")
	}
	if len(p.steps) == 0 {
		return nil, nil, nil
	}

	if t == nil {
		t = NewTransport(p, initial, p.context)
	} else if !t.AcceptsInput(initial) {
		return nil, nil, errors.Wrap(ErrLogic, "custom transport must be created with the run initial value")
	}

	p.working = true
	p.locked = true
	p.history.Push(t)

	return t, p.steps, nil
}

func (p *Pipeline) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.working = false
}

func (p *Pipeline) run(initial, cursor any, t *Transport, steps []*registration) (any, error) {
	logger := p.logger.With().Str("pipeline", p.name).Time("run", t.CreatedAt()).Logger()
	fail := func(err error) (any, error) {
		logger.Error().Err(err).Msg("run failed")

		return nil, err
	}

	logger.Debug().Int("steps", len(steps)).Msg("run started")
	start := time.Now()

	carry, err := p.initialCarry(initial, cursor)
	if err != nil {
		return fail(errors.Wrap(err, "initial value"))
	}

	for _, reg := range steps {
		startFn := time.Now()
		out, err := reg.step.Call(carry, initial, t, reg.args...)
		if err != nil {
			return fail(errors.Wrapf(err, "step %s", reg.details.Key()))
		}
		carry, err = p.maybeCast(out)
		if err != nil {
			return fail(errors.Wrapf(err, "step %s", reg.details.Key()))
		}
		elapsed := time.Since(startFn)

		for _, hook := range p.hooks {
			err := hook.OnStepOutput(reg.details, elapsed)
			if err != nil {
				return fail(errors.Wrap(err, "unable to run step output function"))
			}
		}
		logger.Debug().Str("step", reg.details.Key()).Dur("elapsed", elapsed).Msg("step done")
	}

	total := time.Since(start)
	end := model.Marker(model.EndStep, p.name)
	for _, hook := range p.hooks {
		err := hook.Finish(end, total)
		if err != nil {
			return fail(errors.Wrap(err, "unable to finish pipeline option"))
		}
	}
	logger.Debug().Dur("elapsed", total).Msg("run finished")

	return carry, nil
}

func (p *Pipeline) initialCarry(initial, cursor any) (any, error) {
	if cursor != nil {
		return p.maybeCast(cursor)
	}
	if p.castFirst {
		return p.maybeCast(initial)
	}

	return initial, nil
}

func (p *Pipeline) maybeCast(value any) (any, error) {
	if p.caster == nil {
		return value, nil
	}

	out, err := p.caster(value)
	if err != nil {
		if errors.Is(err, ErrCast) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrCast, err)
	}

	return out, nil
}
