package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("WEBGEN_TEST_VAR", "from-env")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"已设置的变量", "port: ${WEBGEN_TEST_VAR}", "port: from-env"},
		{"已设置的变量忽略默认值", "port: ${WEBGEN_TEST_VAR:fallback}", "port: from-env"},
		{"未设置时取默认值", "port: ${WEBGEN_TEST_UNSET:8001}", "port: 8001"},
		{"未设置且无默认值时保留原样", "port: ${WEBGEN_TEST_UNSET}", "port: ${WEBGEN_TEST_UNSET}"},
		{"空默认值", "key: ${WEBGEN_TEST_UNSET:}", "key: "},
		{"无占位符", "plain: value", "plain: value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}

func TestRoleProviderModel(t *testing.T) {
	cfg := &Config{
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			Providers: map[string]ProviderConfig{
				"gemini": {Model: "gemini-2.5-flash"},
				"openai": {Model: "gpt-4o-mini"},
			},
		},
	}

	provider, model := cfg.RoleProviderModel(RoleConfig{})
	assert.Equal(t, "gemini", provider)
	assert.Equal(t, "gemini-2.5-flash", model)

	provider, model = cfg.RoleProviderModel(RoleConfig{Provider: "openai"})
	assert.Equal(t, "openai", provider)
	assert.Equal(t, "gpt-4o-mini", model)

	provider, model = cfg.RoleProviderModel(RoleConfig{Provider: "openai", Model: "gpt-4o"})
	assert.Equal(t, "openai", provider)
	assert.Equal(t, "gpt-4o", model)
}

func TestMissingCredentialProviders(t *testing.T) {
	cfg := &Config{
		LLM: LLMConfig{
			Providers: map[string]ProviderConfig{
				"gemini": {APIKey: ""},
				"openai": {APIKey: "sk-test"},
			},
		},
	}

	missing := cfg.MissingCredentialProviders()
	assert.Equal(t, []string{"gemini"}, missing)
}
