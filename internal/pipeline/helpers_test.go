package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/tool"
)

// fakeTools records invocations and simulates the outputs of the external programs
type fakeTools struct {
	mu    sync.Mutex
	calls [][]string

	// fail names a program (base name) that exits non-zero without output
	fail string
	// handle creates the outputs of a successful invocation
	handle func(program string, args []string) error
}

func (f *fakeTools) Run(ctx context.Context, name string, args ...string) tool.Result {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	res := tool.Result{Command: tool.CommandLine(name, args...)}

	program := filepath.Base(name)
	if program == f.fail {
		res.Err = fmt.Errorf("%s: exit status 1", program)
		res.Output = []byte("simulated failure\n")
		return res
	}

	if f.handle != nil {
		res.Err = f.handle(program, args)
	}

	return res
}

// noTools fails the test when any program is invoked
func noTools(t *testing.T) tool.Runner {
	return tool.RunnerFunc(func(_ context.Context, name string, args ...string) tool.Result {
		t.Errorf("unexpected call: %s", tool.CommandLine(name, args...))
		return tool.Result{Command: tool.CommandLine(name, args...), Err: errors.New("not allowed")}
	})
}

// programs lists the base names of the invoked programs in call order
func (f *fakeTools) programs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = filepath.Base(c[0])
	}

	return out
}

func (f *fakeTools) last(program string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.calls) - 1; i >= 0; i-- {
		if filepath.Base(f.calls[i][0]) == program {
			return f.calls[i][1:]
		}
	}

	return nil
}

func touch(t *testing.T, paths ...string) {
	t.Helper()

	for _, p := range paths {
		if err := writeText(p, ""); err != nil {
			t.Fatal(err)
		}
	}
}

func writeText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(content), 0644)
}

func argAfter(args []string, flag string) (string, error) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], nil
		}
		if strings.HasPrefix(a, flag+"=") {
			return strings.TrimPrefix(a, flag+"="), nil
		}
	}

	return "", errors.New("missing " + flag)
}

func testConfig(t *testing.T) hcp.Config {
	return hcp.Config{
		DataRoot:  t.TempDir(),
		WbCommand: "wb_command",
	}
}

// giftiASCII renders arrays as an ASCII-encoded GIFTI document
func giftiASCII(dataType string, arrays ...[]float64) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<GIFTI Version="1.0" NumberOfDataArrays="%d">`+"\n", len(arrays))

	for _, arr := range arrays {
		values := make([]string, len(arr))
		for i, v := range arr {
			values[i] = fmt.Sprint(v)
		}

		fmt.Fprintf(&b, `<DataArray Intent="NIFTI_INTENT_NONE" DataType="%s" Dimensionality="1" Dim0="%d" Encoding="ASCII" Endian="LittleEndian" ExternalFileName="">`, dataType, len(arr))
		fmt.Fprintf(&b, "<Data>%s</Data></DataArray>\n", strings.Join(values, " "))
	}

	b.WriteString("</GIFTI>\n")
	return b.String()
}
