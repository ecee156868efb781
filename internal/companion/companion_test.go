package companion

import (
	"os/exec"
	"reflect"
	"testing"

	"github.com/shiwa/quadctl/internal/logger"
)

func TestStart(t *testing.T) {
	logger.Quiet = true
	defer func() { logger.Quiet = false }()

	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	g := Start([]Job{
		{Name: "ahrs", Path: sleep, Args: []string{"30"}},
		{Name: "ahrs", Path: sleep, Args: []string{"30"}},
		{Name: "missing", Path: "/nonexistent/quadctl-companion"},
		{Name: "empty"},
	}, true)

	if got := g.Running(); !reflect.DeepEqual(got, []string{"ahrs"}) {
		t.Errorf("Running = %v, want [ahrs]", got)
	}
	g.Stop()
	g.Stop()
	if st := g.cmds[0].ProcessState; st == nil || st.Success() {
		t.Errorf("process not killed: %v", st)
	}
}

func TestStart_Empty(t *testing.T) {
	g := Start(nil, true)
	if len(g.Running()) != 0 {
		t.Error("expected no processes")
	}
	g.Stop()
}
