package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestSecretString(t *testing.T) {
	tests := []struct {
		name     string
		input    SecretString
		wantJSON string
		wantRaw  string // without html escaping
		wantYAML string
		wantStr  string
	}{
		{name: "empty", input: "", wantJSON: "null", wantRaw: "null", wantYAML: "null", wantStr: ""},
		{name: "secret", input: "my-secret-password", wantJSON: `"\u003csecret\u003e"`, wantRaw: `"` + SecretStringValue + `"`, wantYAML: SecretStringValue, wantStr: SecretStringValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("json.Marshal() = %s, want %s", data, tt.wantJSON)
			}

			// json.Marshal escapes html characters, encoder may be told not to
			buf := new(bytes.Buffer)
			enc := json.NewEncoder(buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(tt.input); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.wantRaw {
				t.Errorf("Encode() = %s, want %s", got, tt.wantRaw)
			}

			data, err = yaml.Marshal(tt.input)
			if err != nil {
				t.Fatalf("yaml.Marshal() error = %v", err)
			}
			if got := strings.TrimSpace(string(data)); got != tt.wantYAML {
				t.Errorf("yaml.Marshal() = %s, want %s", got, tt.wantYAML)
			}

			if got := fmt.Sprint(tt.input); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
			if got := tt.input.Expose(); got != string(tt.input) {
				t.Errorf("Expose() = %q, want %q", got, string(tt.input))
			}
		})
	}
}

func TestSecretString_InStruct(t *testing.T) {
	cfg := S3StorageConfig{Bucket: "books", AccessKey: "key", SecretKey: "very-secret"}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "very-secret") {
		t.Errorf("secret leaked into yaml output:\n%s", data)
	}
}
