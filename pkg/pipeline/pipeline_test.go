package pipeline_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-carry/pkg/pipeline"
)

func identity(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
	return carry, nil
}

func appendString(suffix string) pipeline.StepFunc {
	return func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
		return carry.(string) + suffix, nil
	}
}

func appendInitial(carry, initial any, _ *pipeline.Transport, _ ...any) (any, error) {
	return append(carry.([]any), initial), nil
}

func TestApplyWithoutSteps(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew()
	got, err := pipe.Apply("foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", got)
	assert.False(t, pipe.Locked())

	info, err := pipe.Info()
	require.NoError(t, err)
	assert.Empty(t, info.Runs)
}

func TestPipeAndApply(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew().
		MustPipe(appendString("X")).
		MustPipe(appendString("Y"))

	got, err := pipe.Apply("Z")
	require.NoError(t, err)
	assert.Equal(t, "ZXY", got)
}

func TestApplyStepArguments(t *testing.T) {
	t.Parallel()

	var gotTransport *pipeline.Transport
	pipe := pipeline.MustNew().MustPipe(pipeline.StepFunc(func(carry, initial any, tr *pipeline.Transport, args ...any) (any, error) {
		gotTransport = tr

		return carry.(string) + initial.(string) + args[0].(string) + args[1].(string), nil
	}), "foo ", "bar")

	got, err := pipe.Apply("baz ")
	require.NoError(t, err)
	assert.Equal(t, "baz baz foo bar", got)
	require.NotNil(t, gotTransport)
	assert.Equal(t, "baz ", gotTransport.Input())
}

func TestSameStepRegisteredTwice(t *testing.T) {
	t.Parallel()

	calls := 0
	step := pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
		calls++

		return carry.(int) + 1, nil
	})
	pipe := pipeline.MustNew().MustPipe(step).MustPipe(step)

	got, err := pipe.Apply(0)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 2, calls)
	assert.Len(t, pipe.Steps(), 2)
	assert.Equal(t, 2, pipe.Len())
}

func TestPipeNilStep(t *testing.T) {
	t.Parallel()

	_, err := pipeline.MustNew().Pipe(nil)
	assert.ErrorIs(t, err, pipeline.ErrArgument)
}

func TestPipeFailsIfLocked(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew().MustPipe(pipeline.StepFunc(identity))
	_, err := pipe.Apply("x")
	require.NoError(t, err)
	assert.True(t, pipe.Locked())

	_, err = pipe.Pipe(pipeline.StepFunc(identity))
	assert.ErrorIs(t, err, pipeline.ErrState)
	assert.Panics(t, func() { pipe.MustPipe(pipeline.StepFunc(identity)) })
}

func TestPipeFailsIfLockedAfterFailedRun(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew().MustPipe(pipeline.StepFunc(func(_, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
		return nil, assert.AnError
	}))
	_, err := pipe.Apply("x")
	require.ErrorIs(t, err, assert.AnError)

	_, err = pipe.Pipe(pipeline.StepFunc(identity))
	assert.ErrorIs(t, err, pipeline.ErrState)
}

func TestReentrantCallsFail(t *testing.T) {
	t.Parallel()

	tcs := map[string]func(p *pipeline.Pipeline) error{
		"apply": func(p *pipeline.Pipeline) error {
			_, err := p.Apply("x")

			return err
		},
		"pipe": func(p *pipeline.Pipeline) error {
			_, err := p.Pipe(pipeline.StepFunc(identity))

			return err
		},
		"info": func(p *pipeline.Pipeline) error {
			_, err := p.Info()

			return err
		},
	}

	for name, reenter := range tcs {
		reenter := reenter
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var pipe *pipeline.Pipeline
			var inner error
			pipe = pipeline.MustNew().MustPipe(pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
				assert.True(t, pipe.Working())
				inner = reenter(pipe)

				return carry, inner
			}))

			_, err := pipe.Apply("x")
			assert.ErrorIs(t, inner, pipeline.ErrState)
			assert.ErrorIs(t, err, pipeline.ErrState)
			assert.False(t, pipe.Working())
		})
	}
}

func TestWorkingResetOnPanic(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew().MustPipe(pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
		if carry == "boom" {
			panic("boom")
		}

		return carry, nil
	}))

	assert.Panics(t, func() { _, _ = pipe.Apply("boom") })
	assert.False(t, pipe.Working())

	got, err := pipe.Apply("fine")
	require.NoError(t, err)
	assert.Equal(t, "fine", got)
}

func TestStepErrorStopsRun(t *testing.T) {
	t.Parallel()

	called := false
	pipe := pipeline.MustNew().
		MustPipe(pipeline.StepFunc(func(_, _ any, tr *pipeline.Transport, _ ...any) (any, error) {
			require.NoError(t, tr.Set("before", true))

			return "partial", nil
		})).
		MustPipe(pipeline.Named("failing", pipeline.StepFunc(func(_, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
			return nil, assert.AnError
		}))).
		MustPipe(pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
			called = true

			return carry, nil
		}))

	got, err := pipe.Apply("x")
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "2. failing")
	assert.Nil(t, got)
	assert.False(t, called)

	info, err := pipe.Info()
	require.NoError(t, err)
	require.Len(t, info.Runs, 1)
	assert.Equal(t, true, info.Runs[0].Get("before"))
}

func TestApplyCustomTransport(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew()
	tr := pipeline.NewTransport(pipe, "bar", nil)
	require.NoError(t, tr.Set("foo", "foo"))
	pipe.MustPipe(pipeline.StepFunc(func(carry, _ any, tr *pipeline.Transport, _ ...any) (any, error) {
		if tr.Get("foo") == "foo" {
			return carry.(string) + " foo", nil
		}

		return carry, nil
	}))

	got, err := pipe.Apply("bar", pipeline.WithTransport(tr))
	require.NoError(t, err)
	assert.Equal(t, "bar foo", got)
}

func TestApplyCustomTransportFailsIfWrongInput(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew().MustPipe(pipeline.StepFunc(identity))
	tr := pipeline.NewTransport(pipe, "foo", nil)

	_, err := pipe.Apply("bar", pipeline.WithTransport(tr))
	require.ErrorIs(t, err, pipeline.ErrLogic)
	assert.False(t, pipe.Working())
	assert.False(t, pipe.Locked())
}

func TestApplyCustomCursor(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew().MustPipe(pipeline.StepFunc(appendInitial))

	got, err := pipe.Apply("baz", pipeline.WithCursor([]any{"foo", "bar"}))
	require.NoError(t, err)
	assert.Equal(t, []any{"foo", "bar", "baz"}, got)
}

func TestApplyNilCursorIsIgnored(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew().MustPipe(appendString("!"))

	got, err := pipe.Apply("hi", pipeline.WithCursor(nil))
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)
}

func TestNestedPipelines(t *testing.T) {
	t.Parallel()

	inner1 := pipeline.MustNew().MustPipe(pipeline.StepFunc(appendInitial))
	inner2 := pipeline.MustNew().MustPipe(pipeline.StepFunc(appendInitial))
	outer := pipeline.MustNew().
		MustPipe(inner1).
		MustPipe(pipeline.StepFunc(appendInitial)).
		MustPipe(inner2)

	initial := []any{"x"}
	got, err := outer.Apply(initial)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", []any{"x"}, []any{"x"}, []any{"x"}}, got)
	assert.True(t, inner1.Locked())
	assert.False(t, inner1.Working())
}

func TestTransportIsSharedInNestedPipelines(t *testing.T) {
	t.Parallel()

	readID := pipeline.StepFunc(func(carry, _ any, tr *pipeline.Transport, _ ...any) (any, error) {
		return carry.(string) + tr.Get("id").(string), nil
	})
	outer := pipeline.MustNew().
		MustPipe(pipeline.MustNew().MustPipe(readID)).
		MustPipe(readID)

	tr := pipeline.NewTransport(outer, "bar", nil)
	require.NoError(t, tr.Set("id", "42"))

	got, err := outer.Apply("bar", pipeline.WithTransport(tr))
	require.NoError(t, err)
	assert.Equal(t, "bar4242", got)
}

func TestInnerStorageVisibleToOuterSteps(t *testing.T) {
	t.Parallel()

	inner := pipeline.MustNew().MustPipe(pipeline.StepFunc(func(carry, _ any, tr *pipeline.Transport, _ ...any) (any, error) {
		require.NoError(t, tr.Set("inner", "was here"))

		return carry, nil
	}))
	outer := pipeline.MustNew().
		MustPipe(inner).
		MustPipe(pipeline.StepFunc(func(carry, _ any, tr *pipeline.Transport, _ ...any) (any, error) {
			return carry.(string) + " " + tr.Get("inner").(string), nil
		}))

	got, err := outer.Apply("inner")
	require.NoError(t, err)
	assert.Equal(t, "inner was here", got)

	info, err := outer.Info()
	require.NoError(t, err)
	require.Len(t, info.Runs, 1)
	assert.Equal(t, []pipeline.Entry{{Key: "inner", Value: "was here"}}, info.Runs[0].Transported)
}

func TestNestedPipelineRunningDifferentPipeline(t *testing.T) {
	t.Parallel()

	other := pipeline.MustNew().MustPipe(appendString("-other"))
	pipe := pipeline.MustNew().MustPipe(pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
		return other.Apply(carry)
	}))

	got, err := pipe.Apply("mine")
	require.NoError(t, err)
	assert.Equal(t, "mine-other", got)
}

func TestInfo(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew(pipeline.WithContext("I am the context"))
	pipe.MustPipe(pipeline.StepFunc(func(carry, initial any, tr *pipeline.Transport, _ ...any) (any, error) {
		err := tr.Set("called", 1)
		if err != nil {
			return nil, err
		}

		return carry.(string) + initial.(string) + tr.Context().(string), nil
	}))

	got, err := pipe.Apply("foo ")
	require.NoError(t, err)
	assert.Equal(t, "foo foo I am the context", got)
	got, err = pipe.Apply("bar ")
	require.NoError(t, err)
	assert.Equal(t, "bar bar I am the context", got)

	info, err := pipe.Info()
	require.NoError(t, err)
	assert.Equal(t, "I am the context", info.Context)
	require.Len(t, info.Runs, 2)

	for i, input := range []string{"bar ", "foo "} {
		run := info.Runs[i]
		assert.Equal(t, input, run.Input)
		assert.Equal(t, []pipeline.Entry{{Key: "called", Value: 1}}, run.Transported)
		assert.False(t, run.StartedAt.IsZero())
	}
	assert.False(t, info.Runs[0].StartedAt.Before(info.Runs[1].StartedAt))

	info, err = pipe.Info()
	require.NoError(t, err)
	assert.Equal(t, "I am the context", info.Context)
	assert.Empty(t, info.Runs)
}

func TestInfoFailsWithBorrowedTransport(t *testing.T) {
	t.Parallel()

	inner := pipeline.MustNew().MustPipe(pipeline.StepFunc(identity))
	outer := pipeline.MustNew().MustPipe(inner)

	_, err := outer.Apply("x")
	require.NoError(t, err)

	_, err = inner.Info()
	require.ErrorIs(t, err, pipeline.ErrAccess)

	info, err := outer.Info()
	require.NoError(t, err)
	assert.Len(t, info.Runs, 1)
}

func TestNewCasterOptions(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(pipeline.WithCaster(pipeline.CastToInt), pipeline.WithCasterFunc(pipeline.ToString))
	require.ErrorIs(t, err, pipeline.ErrArgument)

	_, err = pipeline.New(pipeline.WithCaster(pipeline.CasterKind(42)))
	require.ErrorIs(t, err, pipeline.ErrArgument)

	assert.Panics(t, func() { pipeline.MustNew(pipeline.WithCaster(pipeline.CasterKind(42))) })
}

func TestPipelineNames(t *testing.T) {
	t.Parallel()

	inner := pipeline.MustNew(pipeline.WithName("inner"))
	pipe := pipeline.MustNew(pipeline.WithName("outer")).
		MustPipe(pipeline.StepFunc(identity)).
		MustPipe(pipeline.Named("trim", pipeline.StepFunc(identity)), 1, 2).
		MustPipe(inner).
		MustPipe(pipeline.Named("renamed", inner))

	steps := pipe.Steps()
	require.Len(t, steps, 4)

	keys := make([]string, 0, len(steps))
	for _, s := range steps {
		keys = append(keys, s.Key())
		assert.Equal(t, "outer", s.Pipeline)
	}
	assert.Equal(t, []string{"1. step", "2. trim", "3. inner", "4. renamed"}, keys)
	assert.Equal(t, 2, steps[1].Args)
	assert.EqualValues(t, "pipeline", steps[3].Type)

	assert.Contains(t, pipeline.MustNew().Name(), "pipeline-")
	assert.NotEqual(t, pipeline.MustNew().ID(), pipeline.MustNew().ID())
}

func TestApplyIntCaster(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew(pipeline.WithCaster(pipeline.CastToInt)).
		MustPipe(pipeline.StepFunc(identity)).
		MustPipe(pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
			if i, ok := carry.(int); ok {
				return i * 2, nil
			}

			return 0, nil
		}))

	got, err := pipe.Apply("2")
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestApplyScalarCasters(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		kind     pipeline.CasterKind
		input    any
		check    func(any) bool
		expected any
	}{
		"string": {
			kind:  pipeline.CastToString,
			input: 1,
			check: func(v any) bool {
				_, ok := v.(string)

				return ok
			},
			expected: "OK",
		},
		"bool": {
			kind:  pipeline.CastToBool,
			input: "1",
			check: func(v any) bool {
				_, ok := v.(bool)

				return ok
			},
			expected: true,
		},
		"float": {
			kind:  pipeline.CastToFloat,
			input: "1",
			check: func(v any) bool {
				_, ok := v.(float64)

				return ok
			},
			expected: 1.05,
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe := pipeline.MustNew(pipeline.WithCaster(tc.kind)).
				MustPipe(pipeline.StepFunc(identity)).
				MustPipe(pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
					if tc.check(carry) {
						return tc.expected, nil
					}

					return nil, nil
				}))

			got, err := pipe.Apply(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestApplyObjectCaster(t *testing.T) {
	t.Parallel()

	addKey := func(key string) pipeline.StepFunc {
		return func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
			m, ok := carry.(map[string]any)
			if !ok {
				return nil, assert.AnError
			}
			out := map[string]any{key: key}
			for k, v := range m {
				out[k] = v
			}

			return out, nil
		}
	}
	pipe := pipeline.MustNew(pipeline.WithCaster(pipeline.CastToObject), pipeline.WithCastFirst()).
		MustPipe(addKey("foo")).
		MustPipe(addKey("bar"))

	got, err := pipe.Apply(struct{ Baz string }{Baz: "baz"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Baz": "baz", "foo": "foo", "bar": "bar"}, got)
}

func TestCastFirst(t *testing.T) {
	t.Parallel()

	isArray := func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
		_, ok := carry.([]any)

		return ok, nil
	}

	tcs := map[string]struct {
		opts     []pipeline.Option
		expected []any
	}{
		"cast first": {
			opts:     []pipeline.Option{pipeline.WithCaster(pipeline.CastToArray), pipeline.WithCastFirst()},
			expected: []any{true},
		},
		"no cast first": {
			opts:     []pipeline.Option{pipeline.WithCaster(pipeline.CastToArray)},
			expected: []any{false},
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe := pipeline.MustNew(tc.opts...).MustPipe(pipeline.StepFunc(isArray))
			got, err := pipe.Apply("scalar")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCursorIsAlwaysCast(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew(pipeline.WithCaster(pipeline.CastToInt)).
		MustPipe(pipeline.StepFunc(func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
			return carry.(int) + 1, nil
		}))

	got, err := pipe.Apply("ignored", pipeline.WithCursor("41"))
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestApplyCustomCaster(t *testing.T) {
	t.Parallel()

	uniqueInts := func(value any) (any, error) {
		arr, err := pipeline.ToArray(value)
		if err != nil {
			return nil, err
		}
		seen := map[int]bool{}
		out := []any{}
		for _, v := range arr.([]any) {
			i, ok := v.(int)
			if !ok || seen[i] {
				continue
			}
			seen[i] = true
			out = append(out, i)
		}

		return out, nil
	}
	merge := func(extra ...any) pipeline.StepFunc {
		return func(carry, _ any, _ *pipeline.Transport, _ ...any) (any, error) {
			return append(append([]any{}, carry.([]any)...), extra...), nil
		}
	}

	pipe := pipeline.MustNew(pipeline.WithCasterFunc(uniqueInts)).
		MustPipe(merge("a", 1, "b", 2, false, 3)).
		MustPipe(merge("foo", 4, "bar", 3, false, 2, 1))

	got, err := pipe.Apply([]any{0, "baz"})
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2, 3, 4}, got)
}

func TestCasterFailure(t *testing.T) {
	t.Parallel()

	pipe := pipeline.MustNew(pipeline.WithCaster(pipeline.CastToInt)).MustPipe(pipeline.StepFunc(identity))
	_, err := pipe.Apply("not a number")
	assert.ErrorIs(t, err, pipeline.ErrCast)

	custom := pipeline.MustNew(pipeline.WithCasterFunc(func(any) (any, error) {
		return nil, assert.AnError
	}), pipeline.WithCastFirst()).MustPipe(pipeline.StepFunc(identity))
	_, err = custom.Apply(strconv.Itoa(1))
	assert.ErrorIs(t, err, pipeline.ErrCast)
	assert.ErrorIs(t, err, assert.AnError)
}
