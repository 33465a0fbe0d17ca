package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/root"
)

func TestRunVersionWrites(t *testing.T) {
	var out bytes.Buffer
	ctx := root.CommandContext{
		Deps: root.Dependencies{Version: "test", AppName: "cmuxctl"},
		Out:  &out,
		Cmd:  &cli.Command{Name: "version"},
	}
	if err := runVersion(ctx); err != nil {
		t.Fatalf("runVersion error: %v", err)
	}
	if out.String() != "cmuxctl test\n" {
		t.Fatalf("out=%q", out.String())
	}
}

func TestRunVersionJSON(t *testing.T) {
	var out bytes.Buffer
	ctx := root.CommandContext{
		Deps: root.Dependencies{Version: "1.2.3"},
		JSON: true,
		Out:  &out,
	}
	if err := runVersion(ctx); err != nil {
		t.Fatalf("runVersion error: %v", err)
	}
	if !strings.Contains(out.String(), `"version":"1.2.3"`) || !strings.Contains(out.String(), `"name":"cmux"`) {
		t.Fatalf("out=%q", out.String())
	}
}
