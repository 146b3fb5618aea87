package flowable_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/kode4food/bpmspec/internal/assert"
	"github.com/kode4food/bpmspec/internal/assert/helpers"
	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/flowable"
	"github.com/kode4food/bpmspec/pkg/spec"
	"github.com/kode4food/bpmspec/pkg/value"
)

func withClient(
	t *testing.T, fn func(*helpers.TestEnv, *flowable.Client),
	opts ...flowable.Option,
) {
	t.Helper()
	helpers.WithFakeServer(t, func(env *helpers.TestEnv, baseURL string) {
		opts = append([]flowable.Option{
			flowable.WithPollInterval(helpers.DefaultPollInterval),
		}, opts...)
		c, err := flowable.NewClient(baseURL, opts...)
		if err != nil {
			t.Fatal(err)
		}
		fn(env, c)
	})
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := flowable.NewClient("  ")
	assert.New(t).ErrorIs(err, flowable.ErrBaseURL)
}

func TestExample1OverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		s := spec.New(c, "Example1 over REST", spec.WithSink(env.Recorder)).
			WhenEventOccurs("The Example1 process is started", "Example1",
				spec.Set(), spec.Vars()).
			ThenUserTask("doSomething", spec.Set(),
				spec.Vars(spec.Pair("done", true))).
			ThenProcessIsComplete().
			ThenProcessEndedAndInExclusiveEndEvent("end")
		as.ScenarioPassed(s)
		as.ProcessEnded(env.Engine, s.ProcessInstance().ID)
	})
}

func TestLargeIntegersOverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		const orderID = int64(1<<53 + 1)

		s := spec.New(c, "large id over REST", spec.WithSink(env.Recorder)).
			WhenEventOccurs("start", "Example1", nil,
				spec.Vars(spec.Pair("orderId", orderID))).
			CollectVar("orderId").
			ThenUserTask("doSomething", nil,
				spec.Vars(spec.Pair("ref", orderID))).
			ThenProcessIsComplete().
			CollectVar("ref")
		as.ScenarioPassed(s)

		for _, name := range []string{"orderId", "ref"} {
			got, _ := s.Var(name)
			id, ok := got.Integer()
			as.True(ok, name)
			as.Equal(orderID, id, name)
		}

		v, _, err := env.Engine.HistoricVariable(
			context.Background(), s.ProcessInstance().ID, "orderId",
		)
		as.NoError(err)
		as.True(value.Int(orderID).Equal(v.Value))
	})
}

func TestInvoiceVariablesOverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		s := spec.New(c, "large invoice", spec.WithSink(env.Recorder)).
			WhenEventOccurs("A large invoice arrives", "Invoice",
				spec.Set("total"),
				spec.Vars(spec.Pair("amount", 2000))).
			ThenServiceTask("calculate").
			ThenScriptTask("stamp", "stamped").
			ThenUserTask("approve", spec.Set("total"),
				spec.Vars(spec.Pair("approved", true))).
			ThenProcessEndedAndInEndEvents("approved")
		as.ScenarioPassed(s)

		total, ok := s.Var("total")
		as.True(ok)
		f, _ := total.Float()
		as.InDelta(2400, f, 0.001)
		stamped, _ := s.Var("stamped")
		as.True(value.Bool(true).Equal(stamped))
	})
}

func TestMessagesOverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		s := spec.New(c, "order paid", spec.WithSink(env.Recorder)).
			WhenMsgReceived("An order is placed", "order.placed",
				`{"id":42}`, "").
			WhenFollowUpMsgReceived("The order is paid", "order.paid",
				`{"paid":true}`, "").
			ThenProcessIsComplete().
			CollectVar("order_paid")
		as.ScenarioPassed(s)

		paid, ok := s.Var("order_paid")
		as.True(ok)
		as.True(value.Bool(true).Equal(paid.Get("paid")))
	})
}

func TestCorrelateErrors(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()

		p, err := c.StartByKey(ctx, api.StartRequest{Key: "Example1"})
		as.Require.NoError(err)
		err = c.CorrelateMessage(ctx, p.ID, "nothing", nil)
		as.ErrorIs(err, api.ErrNoSubscription)

		err = c.CorrelateMessage(ctx, "missing", "nothing", nil)
		as.ErrorIs(err, api.ErrInstanceNotFound)
	})
}

func TestStartErrorsOverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()

		_, err := c.StartByKey(ctx, api.StartRequest{Key: "Unknown"})
		as.ErrorIs(err, api.ErrDefinitionNotFound)

		_, err = c.StartByMessage(ctx, api.MessageStartRequest{
			Message: "unknown",
		})
		as.ErrorIs(err, api.ErrDefinitionNotFound)

		_, err = c.StartByKey(ctx, api.StartRequest{
			Key:      "TenantOnly",
			TenantID: "acme",
		})
		as.NoError(err)
	})
}

func TestVariableLookups(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()

		p, err := c.StartByKey(ctx, api.StartRequest{
			Key: "Example1",
			Variables: spec.Vars(
				spec.Pair("name", "kermit"),
				spec.Pair("count", 3),
				spec.Pair("ratio", 0.5),
				spec.Pair("when", helpers.TestEpoch),
			),
		})
		as.Require.NoError(err)

		v, ok, err := c.Variable(ctx, p.ID, "name")
		as.NoError(err)
		as.True(ok)
		as.True(value.String("kermit").Equal(v))

		v, ok, err = c.Variable(ctx, p.ID, "count")
		as.NoError(err)
		as.True(ok)
		as.True(value.Int(3).Equal(v))

		v, _, err = c.Variable(ctx, p.ID, "ratio")
		as.NoError(err)
		as.True(value.Number(0.5).Equal(v))

		v, _, err = c.Variable(ctx, p.ID, "when")
		as.NoError(err)
		tm, ok := v.Time()
		as.True(ok)
		as.True(helpers.TestEpoch.Equal(tm))

		_, ok, err = c.Variable(ctx, p.ID, "missing")
		as.NoError(err)
		as.False(ok)

		_, _, err = c.Variable(ctx, "missing", "name")
		as.ErrorIs(err, api.ErrInstanceNotFound)

		hv, ok, err := c.HistoricVariable(ctx, p.ID, "count")
		as.NoError(err)
		as.True(ok)
		as.True(value.Int(3).Equal(hv.Value))

		_, ok, err = c.HistoricVariable(ctx, p.ID, "missing")
		as.NoError(err)
		as.False(ok)

		details, err := c.HistoricDetails(ctx, p.ID)
		as.NoError(err)
		as.Len(details, 4)
	})
}

func TestTasksAndCompletion(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()

		p, err := c.StartByKey(ctx, api.StartRequest{Key: "Example1"})
		as.Require.NoError(err)

		tasks, err := c.Tasks(ctx, api.TaskQuery{ProcessInstanceID: p.ID})
		as.Require.NoError(err)
		as.Require.Len(tasks, 1)
		as.Equal("doSomething", tasks[0].DefinitionKey)
		as.Equal(p.ID, tasks[0].ProcessInstanceID)

		err = c.CompleteTask(ctx, "missing", nil)
		as.ErrorIs(err, api.ErrTaskNotFound)

		as.NoError(c.CompleteTask(ctx, tasks[0].ID, nil))
		_, _, err = c.Variable(ctx, p.ID, "anything")
		as.ErrorIs(err, api.ErrInstanceNotFound)

		acts, err := c.HistoricActivities(ctx, api.HistoricActivityQuery{
			ProcessInstanceID: p.ID,
			ActivityID:        "doSomething",
		})
		as.Require.NoError(err)
		as.Require.Len(acts, 1)
		as.Equal("userTask", acts[0].ActivityType)
		as.NotNil(acts[0].EndTime)

		procs, err := c.HistoricProcesses(ctx, api.HistoricProcessQuery{
			ProcessInstanceID: p.ID,
		})
		as.Require.NoError(err)
		as.Require.Len(procs, 1)
		as.True(procs[0].Ended())
		as.Equal("end", procs[0].EndActivityID)
	})
}

func TestTasksPaging(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()
		for range 12 {
			_, err := c.StartByKey(ctx, api.StartRequest{Key: "Example1"})
			as.Require.NoError(err)
		}
		tasks, err := c.Tasks(ctx, api.TaskQuery{})
		as.NoError(err)
		as.Len(tasks, 12)
	})
}

func TestSubProcessesOverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		s := spec.New(c, "nested", spec.WithSink(env.Recorder)).
			WhenEventOccurs("Root starts", "Root", spec.Set(), spec.Vars()).
			ThenSubProcessCalled("SubA").
			ThenProcessIsComplete()
		as.ScenarioPassed(s)
	})
}

func TestJobsOverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()

		s := spec.New(c, "async", spec.WithSink(env.Recorder)).
			WhenEventOccurs("Async starts", "Async", spec.Set("notified"),
				spec.Vars()).
			WhenExecuteAllJobs(helpers.DefaultJobTimeout).
			ThenProcessIsComplete()
		as.ScenarioPassed(s)

		p, err := c.StartByKey(ctx, api.StartRequest{Key: "Reminder"})
		as.Require.NoError(err)

		jobs, err := c.Jobs(ctx)
		as.Require.NoError(err)
		as.Require.Len(jobs, 1)
		as.Equal(api.JobTypeTimer, jobs[0].Type)
		as.Equal("wait2h", jobs[0].ActivityID)
		as.True(helpers.TestEpoch.Add(2 * time.Hour).Equal(jobs[0].DueDate))

		err = c.WaitForJobs(ctx, 10*time.Millisecond)
		as.ErrorIs(err, api.ErrJobsTimeout)

		as.Require.NoError(env.Engine.SetClock(ctx,
			helpers.TestEpoch.Add(3*time.Hour)))
		jobs, err = c.Jobs(ctx)
		as.Require.NoError(err)
		as.Require.Len(jobs, 1)
		as.Equal("wait2h", jobs[0].ActivityID)

		as.NoError(c.ExecuteJobsFor(ctx, time.Second))
		as.ProcessEnded(env.Engine, p.ID)
	})
}

func TestClockUnsupported(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()

		_, err := c.Now(ctx)
		as.ErrorIs(err, api.ErrUnsupported)
		as.ErrorIs(c.SetClock(ctx, time.Now()), api.ErrUnsupported)

		s := spec.New(c, "clock", spec.WithSink(env.Recorder)).
			WhenEventOccurs("Reminder starts", "Reminder", spec.Set(),
				spec.Vars()).
			WhenProcessTimePassed(api.Hour, 3)
		as.ScenarioFailed(s, api.ErrUnsupported)
	})
}

func TestIdentityOverREST(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		as := assert.New(t)
		ctx := context.Background()

		u, ok, err := c.User(ctx, helpers.TestUser)
		as.NoError(err)
		as.True(ok)
		as.Equal("Kermit", u.FirstName)
		as.Equal("kermit@example.com", u.Email)

		_, ok, err = c.User(ctx, "gonzo")
		as.NoError(err)
		as.False(ok)

		g, ok, err := c.Group(ctx, helpers.TestGroup)
		as.NoError(err)
		as.True(ok)
		as.Equal(helpers.TestGroup, g.ID)

		ok, err = c.CheckPassword(ctx, helpers.TestUser, helpers.TestPassword)
		as.NoError(err)
		as.True(ok)

		ok, err = c.CheckPassword(ctx, helpers.TestUser, "pig")
		as.NoError(err)
		as.False(ok)
	})
}

func TestCredentials(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		_, err := c.StartByKey(context.Background(), api.StartRequest{
			Key: "Example1",
		})
		assert.New(t).NoError(err)
	}, flowable.WithCredentials(helpers.TestUser, helpers.TestPassword))

	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		_, err := c.StartByKey(context.Background(), api.StartRequest{
			Key: "Example1",
		})
		as := assert.New(t)
		as.ErrorIs(err, flowable.ErrRequestFailed)
		as.Contains(err.Error(), "401")
	}, flowable.WithCredentials(helpers.TestUser, "pig"))
}

func TestHTTPClientOption(t *testing.T) {
	withClient(t, func(env *helpers.TestEnv, c *flowable.Client) {
		_, ok, err := c.User(context.Background(), helpers.TestUser)
		as := assert.New(t)
		as.NoError(err)
		as.True(ok)
	},
		flowable.WithHTTPClient(&http.Client{}),
		flowable.WithTimeout(time.Second),
	)
}
