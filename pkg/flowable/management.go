package flowable

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bpmspec/pkg/api"
)

// Jobs lists executable jobs followed by timers that are not yet due
func (c *Client) Jobs(ctx context.Context) ([]*api.Job, error) {
	ready, err := c.jobs(ctx, PathJobs, api.JobTypeAsync)
	if err != nil {
		return nil, err
	}
	timers, err := c.jobs(ctx, PathTimerJobs, api.JobTypeTimer)
	if err != nil {
		return nil, err
	}
	return append(ready, timers...), nil
}

// ExecuteJobsFor executes ready jobs one at a time until none remain or d
// has elapsed
func (c *Client) ExecuteJobsFor(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		ran, err := c.executeReady(ctx)
		if err != nil {
			return err
		}
		if ran == 0 {
			return nil
		}
	}
	return nil
}

// WaitForJobs executes ready jobs and polls until no jobs of either kind
// remain
func (c *Client) WaitForJobs(
	ctx context.Context, timeout time.Duration,
) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := c.executeReady(ctx); err != nil {
			return err
		}
		jobs, err := c.Jobs(ctx)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %d jobs after %s",
				api.ErrJobsTimeout, len(jobs), timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Now is not available over REST
func (c *Client) Now(context.Context) (time.Time, error) {
	return time.Time{}, fmt.Errorf("%w: read engine clock", api.ErrUnsupported)
}

// SetClock is not available over REST
func (c *Client) SetClock(context.Context, time.Time) error {
	return fmt.Errorf("%w: set engine clock", api.ErrUnsupported)
}

func (c *Client) executeReady(ctx context.Context) (int, error) {
	items, err := c.list(ctx, PathJobs, nil)
	if err != nil {
		return 0, err
	}
	ran := 0
	for _, item := range items {
		path := pathOf(PathJobs, item.Get("id").String())
		resp, err := c.send(ctx, http.MethodPost, path, &ActionBody{
			Action: ActionExecute,
		})
		if err != nil {
			return ran, err
		}
		switch {
		case resp.ok():
			ran++
		case resp.status == http.StatusNotFound:
			// picked up by the engine's own executor
		default:
			return ran, resp.fail(http.MethodPost, path)
		}
	}
	return ran, nil
}

func (c *Client) jobs(
	ctx context.Context, path string, typ api.JobType,
) ([]*api.Job, error) {
	items, err := c.list(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	res := make([]*api.Job, len(items))
	for i, item := range items {
		j, err := jobOf(item, typ)
		if err != nil {
			return nil, err
		}
		res[i] = j
	}
	return res, nil
}

func jobOf(item gjson.Result, typ api.JobType) (*api.Job, error) {
	due, err := optionalTimeOf(item.Get("dueDate"))
	if err != nil {
		return nil, err
	}
	j := &api.Job{
		ID:                item.Get("id").String(),
		ProcessInstanceID: instanceIDOf(item.Get("processInstanceId")),
		ActivityID:        item.Get("elementId").String(),
		Type:              typ,
	}
	if due != nil {
		j.DueDate = *due
	}
	return j, nil
}
