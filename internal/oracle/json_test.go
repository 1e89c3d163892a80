package oracle

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"strategy":"tokens"}`,
			want:  `{"strategy":"tokens"}`,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"selected\":[\"Sol Ring\"]}\n```",
			want:  `{"selected":["Sol Ring"]}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is my selection:\n{\"selected\":[]}\nLet me know if you need anything else.",
			want:  `{"selected":[]}`,
		},
		{
			name:  "nested objects",
			input: `{"a":{"b":{"c":1}},"d":2}`,
			want:  `{"a":{"b":{"c":1}},"d":2}`,
		},
		{
			name:  "brace inside string value",
			input: `{"text":"ignore } and { here","n":1}`,
			want:  `{"text":"ignore } and { here","n":1}`,
		},
		{
			name:  "escaped quote inside string",
			input: `{"text":"he said \"}\"","n":1} trailing prose`,
			want:  `{"text":"he said \"}\"","n":1}`,
		},
		{
			name:  "first object wins",
			input: `{"first":1} {"second":2}`,
			want:  `{"first":1}`,
		},
		{
			name:    "no braces",
			input:   "I cannot help with that request.",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"truncated": [1, 2`,
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSON) {
					t.Fatalf("ExtractObject() error = %v, want ErrNoJSON", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractObject() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractObject() = %q, want %q", got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("ExtractObject() returned invalid JSON: %q", got)
			}
		})
	}
}
