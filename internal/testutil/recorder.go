package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

// Recorder is an api.Observer that records every callback as a short line,
// e.g. "start", "step:Greet/S1", "done:Greet/S1", "fail:Greet/S1",
// "unhandled:string" and "stop".
type Recorder struct {
	mu    sync.Mutex
	lines []string
	errs  []error
}

var _ api.Observer = (*Recorder)(nil)

func (r *Recorder) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Errors returns the errors passed to OnStepCompleted.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *Recorder) OnRunStart(ctx context.Context, runnerID string, m *model.Model) {
	r.add("start")
}

func (r *Recorder) OnRunStop(ctx context.Context, runnerID string) {
	r.add("stop")
}

func (r *Recorder) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {
	r.add("step:" + step.String())
}

func (r *Recorder) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
	if err != nil {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
		r.add("fail:" + step.String())
		return
	}
	r.add("done:" + step.String())
}

func (r *Recorder) OnEventUnhandled(ctx context.Context, runnerID string, event any) {
	r.add(fmt.Sprintf("unhandled:%s", api.EventName(event)))
}
