package envstruct_test

import (
	"github.com/myrjola/faqforge/internal/envstruct"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

func TestPopulate(t *testing.T) {
	type args struct {
		v         any
		lookupEnv func(string) (string, bool)
	}
	unset := func(_ string) (string, bool) { return "", false }
	tests := []struct {
		name    string
		args    args
		want    any
		wantErr error
	}{
		{
			name:    "nil",
			args:    args{v: nil, lookupEnv: unset},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "not pointer",
			args:    args{v: struct{}{}, lookupEnv: unset},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "empty struct",
			args:    args{v: &struct{}{}, lookupEnv: unset},
			want:    &struct{}{},
			wantErr: nil,
		},
		{
			name: "empty env",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					APIKey string `env:"OPENAI_API_KEY"`
				}{},
				lookupEnv: unset,
			},
			want:    nil,
			wantErr: envstruct.ErrEnvNotSet,
		},
		{
			name: "env is set",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					APIKey string `env:"OPENAI_API_KEY"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "sk-test", true },
			},
			want:    &struct{ APIKey string }{APIKey: "sk-test"},
			wantErr: nil,
		},
		{
			name: "picks correct env variable",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Addr       string `env:"FAQFORGE_ADDR"`
					SQLiteURL  string `env:"FAQFORGE_SQLITE_URL"`
					OtherValue string
				}{},
				lookupEnv: func(s string) (string, bool) { return strings.ToLower(s), true },
			},
			want: &struct {
				Addr       string
				SQLiteURL  string
				OtherValue string
			}{Addr: "faqforge_addr", SQLiteURL: "faqforge_sqlite_url", OtherValue: ""},
			wantErr: nil,
		},
		{
			name: "handles default values of every supported type",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Provider    string        `env:"FAQFORGE_ANALYSIS_PROVIDER" envDefault:"Claude"`
					Diagnostics bool          `env:"FAQFORGE_DIAGNOSTICS" envDefault:"true"`
					Limit       int           `env:"FAQFORGE_LIMIT" envDefault:"4"`
					Timeout     time.Duration `env:"FAQFORGE_PROVIDER_TIMEOUT" envDefault:"90s"`
				}{},
				lookupEnv: unset,
			},
			want: &struct {
				Provider    string
				Diagnostics bool
				Limit       int
				Timeout     time.Duration
			}{Provider: "Claude", Diagnostics: true, Limit: 4, Timeout: 90 * time.Second},
			wantErr: nil,
		},
		{
			name: "rejects malformed duration",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Timeout time.Duration `env:"FAQFORGE_PROVIDER_TIMEOUT"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "soon", true },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "rejects malformed bool",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Diagnostics bool `env:"FAQFORGE_DIAGNOSTICS"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "maybe", true },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "rejects unsupported types",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Ratio float64 `env:"FAQFORGE_RATIO" envDefault:"0.5"`
				}{},
				lookupEnv: unset,
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.args.v
			err := envstruct.Populate(v, tt.args.lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.EqualValues(t, tt.want, v)
			}
		})
	}
}
