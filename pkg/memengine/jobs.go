package memengine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kode4food/bpmspec/pkg/api"
)

type job struct {
	api.Job
	inst *instance
	node *Node
	seq  int64
}

// Jobs lists every pending job, due or not, ordered by due date
func (e *Engine) Jobs(_ context.Context) ([]*api.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending := e.sortedJobs()
	res := make([]*api.Job, len(pending))
	for i, j := range pending {
		cp := j.Job
		res[i] = &cp
	}
	return res, nil
}

// ExecuteJobsFor runs due jobs until none are due or d of wall clock time
// has been spent
func (e *Engine) ExecuteJobsFor(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ran, err := e.runNextDueJob()
		if err != nil {
			return err
		}
		if !ran || !time.Now().Before(deadline) {
			return nil
		}
	}
}

// WaitForJobs runs due jobs and polls until no jobs remain. Timers that are
// not yet due keep it waiting until the timeout
func (e *Engine) WaitForJobs(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		for {
			ran, err := e.runNextDueJob()
			if err != nil {
				return err
			}
			if !ran {
				break
			}
		}

		remaining := e.jobCount()
		if remaining == 0 {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %d jobs after %s",
				api.ErrJobsTimeout, remaining, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

// ExecuteJob runs a single pending job immediately, whether or not it is
// due
func (e *Engine) ExecuteJob(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, ok := e.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrJobNotFound, id)
	}
	delete(e.jobs, id)
	if _, ok := e.running[j.inst.id]; !ok {
		return nil
	}
	return e.executeJob(j)
}

// Now returns the engine clock
func (e *Engine) Now(_ context.Context) (time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now(), nil
}

// SetClock fixes the engine clock at t. Timers due at or before t become
// executable
func (e *Engine) SetClock(_ context.Context, t time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = fixedClock(t)
	return nil
}

func (e *Engine) schedule(
	inst *instance, n *Node, typ api.JobType, due time.Time,
) {
	j := &job{
		Job: api.Job{
			ID:                e.nextID(),
			ProcessInstanceID: inst.id,
			ActivityID:        n.ID,
			Type:              typ,
			DueDate:           due,
		},
		inst: inst,
		node: n,
		seq:  e.nextSeq(),
	}
	e.jobs[j.ID] = j
}

func (e *Engine) runNextDueJob() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for _, j := range e.sortedJobs() {
		if j.DueDate.After(now) {
			return false, nil
		}
		delete(e.jobs, j.ID)
		if _, ok := e.running[j.inst.id]; !ok {
			continue
		}
		return true, e.executeJob(j)
	}
	return false, nil
}

func (e *Engine) executeJob(j *job) error {
	if j.Type == api.JobTypeAsync {
		if err := e.invoke(j.inst, j.node); err != nil {
			return err
		}
	}
	return e.resume(j.inst)
}

func (e *Engine) jobCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

func (e *Engine) sortedJobs() []*job {
	res := make([]*job, 0, len(e.jobs))
	for _, j := range e.jobs {
		res = append(res, j)
	}
	slices.SortFunc(res, func(a, b *job) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return int(a.seq - b.seq)
	})
	return res
}
