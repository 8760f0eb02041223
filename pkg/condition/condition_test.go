package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type approval struct {
	Approved bool   `mapstructure:"approved"`
	Group    string `mapstructure:"group"`
}

func TestExpr_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		give    Expr
		input   any
		want    bool
		wantErr bool
	}{
		{
			name: "literal true",
			give: "true",
			want: true,
		},
		{
			name: "literal false",
			give: "false",
			want: false,
		},
		{
			name:  "map input",
			give:  `input.group == "admins"`,
			input: map[string]any{"group": "admins"},
			want:  true,
		},
		{
			name:  "struct input",
			give:  `input.approved && input.group == "admins"`,
			input: approval{Approved: true, Group: "admins"},
			want:  true,
		},
		{
			name:  "dynamic value",
			give:  `input.approved`,
			input: map[string]any{"approved": false},
			want:  false,
		},
		{
			name:    "dynamic value which is not a boolean",
			give:    `input.group`,
			input:   map[string]any{"group": "admins"},
			wantErr: true,
		},
		{
			name:    "missing key",
			give:    `input.missing == true`,
			input:   map[string]any{},
			wantErr: true,
		},
		{
			name:    "not a boolean",
			give:    `"hello"`,
			wantErr: true,
		},
		{
			name:    "invalid syntax",
			give:    `aaaa`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.give.Evaluate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Evaluate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnv_Check(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)

	assert.NoError(t, env.Check("true"))
	assert.NoError(t, env.Check(`input.x > 1`))
	assert.Error(t, env.Check(`1 + 1`))
	assert.Error(t, env.Check(`something == false`))

	// checked expressions are cached
	assert.Len(t, env.programs, 2)
}

func TestExpr_String(t *testing.T) {
	var c Condition = Expr("input.ok")
	assert.Equal(t, "input.ok", c.String())
}
