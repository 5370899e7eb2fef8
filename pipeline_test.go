package main

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shSource 用 sh -c 模拟数据源
type shSource struct {
	script string
}

func (s shSource) Name() string   { return "sh" }
func (s shSource) Args() []string { return []string{"-c", s.script} }
func (s shSource) Command(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", s.Args()...)
}

func shCompressor(script string) Compressor {
	return Compressor{Name: "test", Program: "sh", CompressArgs: []string{"-c", script}}
}

func TestPipeline_Run(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	tests := []struct {
		name         string
		source       string
		filter       string
		want         string
		wantErr      bool
		wantExitCode int
		wantStderr   string
	}{
		{
			name:   "both stages succeed",
			source: "printf 'hello world'",
			filter: "tr a-z A-Z",
			want:   "HELLO WORLD",
		},
		{
			name:         "producer fails",
			source:       "echo boom >&2; exit 3",
			filter:       "cat",
			wantErr:      true,
			wantExitCode: 3,
			wantStderr:   "boom",
		},
		{
			name:         "filter fails",
			source:       "printf data",
			filter:       "cat >/dev/null; echo bad >&2; exit 4",
			wantErr:      true,
			wantExitCode: 4,
			wantStderr:   "bad",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{
				Source:     shSource{script: tt.source},
				Compressor: shCompressor(tt.filter),
				Output:     "out",
			}
			var out bytes.Buffer
			err := p.Run(t.Context(), &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				assert.Equal(t, tt.want, out.String())
				return
			}

			var cmdErr *CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, tt.wantExitCode, cmdErr.ExitCode())
			assert.Equal(t, tt.wantStderr, cmdErr.Stderr)
			assert.Contains(t, err.Error(), tt.wantStderr)
		})
	}
}

func TestPipeline_RunMissingProgram(t *testing.T) {
	p := &Pipeline{
		Source:     shSource{script: "printf data"},
		Compressor: Compressor{Name: "none", Program: "tarbak-no-such-compressor"},
	}
	var out bytes.Buffer
	err := p.Run(t.Context(), &out)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "tarbak-no-such-compressor", cmdErr.Name)
	assert.Equal(t, -1, cmdErr.ExitCode())
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestPipeline_RunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	p := &Pipeline{
		Source:     shSource{script: "printf data"},
		Compressor: shCompressor("cat"),
	}
	var out bytes.Buffer
	assert.Error(t, p.Run(ctx, &out))
}

func TestPipeline_String(t *testing.T) {
	xz, err := lookupCompressor("xz")
	require.NoError(t, err)

	p := &Pipeline{
		Source:     tarSource{Dir: "/home/alice"},
		Compressor: xz,
		Output:     "/mnt/backups/alice-20240301-101500.tar.xz",
	}
	got := p.String()

	assert.True(t, strings.HasPrefix(got, "tar -C /home/alice -c -f - "), got)
	assert.Contains(t, got, " . | xz -cz -T0 > /mnt/backups/alice-20240301-101500.tar.xz")
	assert.Contains(t, got, `--exclude=\*.log`)
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	n, err = b.Write([]byte("gh"))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "abcd", b.String())
}
