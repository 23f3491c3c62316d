package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingCompleter struct {
	requests []StructuredRequest
	err      error
}

func (r *recordingCompleter) CompleteStructured(ctx context.Context, req StructuredRequest) (StructuredResponse, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return StructuredResponse{}, r.err
	}
	return StructuredResponse{Content: []byte(`{}`), Model: "vendor-reported", Usage: Usage{TotalTokens: 42}}, nil
}

func TestRouterDispatchesByProvider(t *testing.T) {
	openaiStub := &recordingCompleter{}
	anthropicStub := &recordingCompleter{}

	router := NewRouter(zerolog.Nop())
	router.Register(ProviderOpenAI, openaiStub)
	router.Register(ProviderAnthropic, anthropicStub)
	router.Register(ProviderGoogle, nil)

	require.Equal(t, []Provider{ProviderAnthropic, ProviderOpenAI}, router.Providers())
	require.True(t, router.Configured(ProviderOpenAI))
	require.False(t, router.Configured(ProviderGoogle))

	resp, err := router.CompleteStructured(context.Background(), StructuredRequest{Model: "anthropic/claude-3-5-haiku-20241022", UserPrompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, ProviderAnthropic, resp.Provider)
	require.Equal(t, "anthropic/claude-3-5-haiku-20241022", resp.Model)
	require.Equal(t, 42, resp.Usage.TotalTokens)

	require.Empty(t, openaiStub.requests)
	require.Len(t, anthropicStub.requests, 1)
	require.Equal(t, "claude-3-5-haiku-20241022", anthropicStub.requests[0].Model)
	require.Equal(t, "hi", anthropicStub.requests[0].UserPrompt)
}

func TestRouterErrors(t *testing.T) {
	failing := &recordingCompleter{err: context.DeadlineExceeded}
	router := NewRouter(zerolog.Nop())
	router.Register(ProviderOpenAI, failing)

	_, err := router.CompleteStructured(context.Background(), StructuredRequest{Model: "gpt-4o-mini"})
	require.ErrorIs(t, err, ErrInvalidModelID)

	_, err = router.CompleteStructured(context.Background(), StructuredRequest{Model: "google/gemini-1.5-flash"})
	require.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = router.CompleteStructured(context.Background(), StructuredRequest{Model: "openai/gpt-4o-mini"})
	require.True(t, errors.Is(err, context.DeadlineExceeded), "provider errors keep their cause")
	require.Contains(t, err.Error(), "openai completion")
}

func TestParseModelID(t *testing.T) {
	cases := []struct {
		id       string
		provider Provider
		name     string
		wantErr  bool
	}{
		{id: "openai/gpt-4o-mini", provider: ProviderOpenAI, name: "gpt-4o-mini"},
		{id: " Anthropic/claude-3-opus-20240229 ", provider: ProviderAnthropic, name: "claude-3-opus-20240229"},
		{id: "google/models/gemini-1.5-pro", provider: ProviderGoogle, name: "models/gemini-1.5-pro"},
		{id: "gpt-4o", wantErr: true},
		{id: "/gpt-4o", wantErr: true},
		{id: "openai/", wantErr: true},
		{id: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			provider, name, err := ParseModelID(tc.id)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidModelID)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.provider, provider)
			require.Equal(t, tc.name, name)
		})
	}
}

func TestModelCatalog(t *testing.T) {
	models := Models()
	require.NotEmpty(t, models)
	for i := 1; i < len(models); i++ {
		require.Less(t, models[i-1].ID, models[i].ID)
	}

	info, ok := LookupModel(DefaultModel)
	require.True(t, ok)
	require.Equal(t, ProviderOpenAI, info.Provider)
	require.Equal(t, DefaultModel, info.ID)

	for _, model := range models {
		provider, _, err := ParseModelID(model.ID)
		require.NoError(t, err)
		require.Equal(t, model.Provider, provider, model.ID)
	}

	_, ok = LookupModel("openai/unknown")
	require.False(t, ok)
}
