package catcher_test

import (
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hochfrequenz/seviper/catcher"
	"github.com/Hochfrequenz/seviper/catcher/catchertest"
	"github.com/Hochfrequenz/seviper/contract"
)

func Test_Secured_Call(t *testing.T) {
	t.Parallel()

	t.Run("success returns the produced value", func(t *testing.T) {
		t.Parallel()

		s := catcher.Secure(greetWork(), catcher.New())

		value, err := s.Call(t.Context(), "World!")
		require.NoError(t, err)
		assert.Equal(t, "Hello World!", value)
	})

	t.Run("failure returns the default value and the error", func(t *testing.T) {
		t.Parallel()

		errWork := errors.New("work failed")
		onError := catchertest.NewRecorder()
		s := catcher.Secure(brokenWork(errWork),
			catcher.New(catcher.OnErrorFunc("on_error", onError.Func(nil))))

		value, err := s.Call(t.Context(), "World!")
		require.ErrorIs(t, err, errWork)
		assert.Equal(t, catcher.Errored, value)
		assert.Equal(t, 1, onError.Len())
	})

	t.Run("CallWith passes keyword arguments", func(t *testing.T) {
		t.Parallel()

		s := catcher.Secure(greetWork(), catcher.New())

		value, err := s.CallWith(t.Context(), contract.Call{KwArgs: map[string]any{"hello": "World!"}})
		require.NoError(t, err)
		assert.Equal(t, "Hello World!", value)
	})
}

func Test_Secured_Accessors(t *testing.T) {
	t.Parallel()

	c := catcher.New()
	work := greetWork()
	s := catcher.Secure(work, c)

	assert.Same(t, c, s.Catcher())
	assert.Same(t, work, s.Original())
	assert.Equal(t, "greet", s.Def().Name)
	assert.Equal(t, "1.0.0", s.Def().Version.String())
}

func Test_Secured_CheckRewrap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catcher *catcher.Catcher
		req     catcher.RewrapRequest
		wantErr bool
	}{
		{
			name:    "plain reuse of a sentinel-default catcher",
			catcher: catcher.New(),
			req:     catcher.RewrapRequest{},
		},
		{
			name:    "custom default requires the opt-in",
			catcher: catcher.New(catcher.WithDefault("fallback")),
			req:     catcher.RewrapRequest{},
			wantErr: true,
		},
		{
			name:    "registering observers requires the opt-in",
			catcher: catcher.New(),
			req:     catcher.RewrapRequest{ConfiguresObservers: true},
			wantErr: true,
		},
		{
			name:    "disabling suppression requires the opt-in",
			catcher: catcher.New(),
			req:     catcher.RewrapRequest{DisablesSuppression: true},
			wantErr: true,
		},
		{
			name:    "explicit opt-in always allows wrapping",
			catcher: catcher.New(catcher.WithDefault("fallback")),
			req:     catcher.RewrapRequest{WrapAgain: true, ConfiguresObservers: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := catcher.Secure(greetWork(), tt.catcher)

			err := s.CheckRewrap(tt.req)
			if tt.wantErr {
				require.ErrorIs(t, err, catcher.ErrAlreadySecured)

				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_Registry(t *testing.T) {
	t.Parallel()

	greet := catcher.Secure(greetWork(), catcher.New())
	broken := catcher.Secure(brokenWork(errors.New("work failed")), catcher.New())

	registry := catcher.NewRegistry(greet)
	registry.Register(broken)

	t.Run("retrieves by name and version", func(t *testing.T) {
		t.Parallel()

		got, err := registry.Retrieve(catcher.Definition{Name: "greet", Version: semver.MustParse("1.0.0")})
		require.NoError(t, err)
		assert.Same(t, greet, got)

		got, err = registry.Retrieve(catcher.Definition{Name: "broken", Version: semver.MustParse("1.0.0")})
		require.NoError(t, err)
		assert.Same(t, broken, got)
	})

	t.Run("version mismatch is not found", func(t *testing.T) {
		t.Parallel()

		_, err := registry.Retrieve(catcher.Definition{Name: "greet", Version: semver.MustParse("2.0.0")})
		require.ErrorIs(t, err, catcher.ErrWorkNotFound)
	})

	t.Run("unknown name is not found", func(t *testing.T) {
		t.Parallel()

		_, err := registry.Retrieve(catcher.Definition{Name: "missing", Version: semver.MustParse("1.0.0")})
		require.ErrorIs(t, err, catcher.ErrWorkNotFound)
	})
}
