package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

func withParams(params map[string]string) *ModelConfig {
	cfg := &ModelConfig{Name: "m", Parameters: map[string]ParameterValue{}}
	for k, v := range params {
		cfg.Parameters[k] = ParameterValue{StringValue: v}
	}
	return cfg
}

func TestParameterLookups(t *testing.T) {
	cfg := withParams(map[string]string{
		"GRAPH_TAG":         "serve",
		"NUM_INTRA_THREADS": "4",
		"bad_int":           "abc",
	})

	s, err := cfg.ParameterString("GRAPH_TAG")
	assert.NoError(t, err)
	assert.Equal(t, "serve", s)

	n, err := cfg.ParameterInt("NUM_INTRA_THREADS")
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = cfg.ParameterString("MISSING")
	assert.True(t, errors.IsNotFound(err))

	_, err = cfg.ParameterInt("bad_int")
	assert.Error(t, err)
	assert.False(t, errors.IsNotFound(err))
}

func TestSessionConfigFromParameters(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		expected *SessionConfig
		wantErr  bool
	}{
		{
			"defaults",
			map[string]string{},
			&SessionConfig{MaxSessionShareCount: 1},
			false,
		},
		{
			"all set",
			map[string]string{
				"MAX_SESSION_SHARE_COUNT": "4",
				"NUM_INTRA_THREADS":       "2",
				"NUM_INTER_THREADS":       "3",
				"USE_PER_SESSION_THREADS": "true",
				"GRAPH_TAG":               "tag",
				"SIGNATURE_DEF":           "sig",
			},
			&SessionConfig{
				MaxSessionShareCount: 4,
				NumIntraThreads:      2,
				NumInterThreads:      3,
				UsePerSessionThreads: true,
				GraphTag:             "tag",
				SignatureDef:         "sig",
			},
			false,
		},
		{"zero share count rejected", map[string]string{"MAX_SESSION_SHARE_COUNT": "0"}, nil, true},
		{"negative threads rejected", map[string]string{"NUM_INTRA_THREADS": "-1"}, nil, true},
		{"non-numeric rejected", map[string]string{"NUM_INTER_THREADS": "many"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := SessionConfigFromParameters(withParams(tt.params))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, sc)
			}
		})
	}
}
