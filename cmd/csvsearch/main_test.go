package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const animals = "Name,Type\nfox,Black\ncat,White\nowl,black_brown\n"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "animals.csv")
	if err := os.WriteFile(path, []byte(animals), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{path}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestJSONOutput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want [][]string
	}{
		{"by name", []string{"black", "--header", "--name", "Type", "--json"}, [][]string{{"fox", "Black"}, {"owl", "black_brown"}}},
		{"by index", []string{"black brown", "--header", "--index", "1", "--json"}, [][]string{{"owl", "black_brown"}}},
		{"whole rows", []string{"name", "--json"}, [][]string{{"Name", "Type"}}},
		{"no match", []string{"zebra", "--json"}, [][]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got [][]string
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTableOutput(t *testing.T) {
	out, _, err := execute(t, "white", "--header", "--name", "type")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Name", "cat", "White", "1 row(s) matched"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "fox") {
		t.Errorf("output should not contain fox:\n%s", out)
	}
}

func TestNoMatchSuggestsColumn(t *testing.T) {
	out, _, err := execute(t, "black", "--header", "--name", "Tpye")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "no rows matched") || !strings.Contains(out, `did you mean "Type"`) {
		t.Errorf("output = %q", out)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"name without header", []string{"x", "--name", "Type"}, "SRCH003"},
		{"index out of range", []string{"x", "--header", "--index", "7"}, "SRCH001"},
		{"strict width", []string{"x", "--strict", "3"}, "CSV002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(stderr, tt.code) {
				t.Errorf("stderr %q should mention %s", stderr, tt.code)
			}
		})
	}
}

func TestIndexAndNameExclusive(t *testing.T) {
	if _, _, err := execute(t, "x", "--header", "--index", "0", "--name", "Type"); err == nil {
		t.Fatal("expected error for --index with --name")
	}
}
