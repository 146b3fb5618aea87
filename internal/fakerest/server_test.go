package fakerest_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bpmspec/internal/assert"
	"github.com/kode4food/bpmspec/internal/assert/helpers"
	"github.com/kode4food/bpmspec/internal/fakerest"
	"github.com/kode4food/bpmspec/pkg/flowable"
)

type call struct {
	method string
	path   string
	body   string
	user   string
	pass   string
}

func serve(
	t *testing.T, fn func(do func(call) (int, gjson.Result)),
) {
	t.Helper()
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		srv := httptest.NewServer(fakerest.NewServer(env.Engine).Handler())
		defer srv.Close()

		fn(func(c call) (int, gjson.Result) {
			var body io.Reader
			if c.body != "" {
				body = strings.NewReader(c.body)
			}
			req, err := http.NewRequest(
				c.method, srv.URL+fakerest.BasePath+c.path, body,
			)
			if err != nil {
				t.Fatal(err)
			}
			if c.user != "" {
				req.SetBasicAuth(c.user, c.pass)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer func() { _ = resp.Body.Close() }()
			data, _ := io.ReadAll(resp.Body)
			return resp.StatusCode, gjson.ParseBytes(data)
		})
	})
}

func TestStartAndPage(t *testing.T) {
	serve(t, func(do func(call) (int, gjson.Result)) {
		as := assert.New(t)
		for range 3 {
			status, body := do(call{
				method: http.MethodPost,
				path:   flowable.PathProcessInstances,
				body:   `{"processDefinitionKey":"Example1"}`,
			})
			as.Equal(http.StatusCreated, status)
			as.NotEmpty(body.Get("id").String())
			as.False(body.Get("ended").Bool())
		}

		status, body := do(call{
			method: http.MethodGet,
			path:   flowable.PathTasks + "?start=1&size=1",
		})
		as.Equal(http.StatusOK, status)
		as.Equal(int64(3), body.Get("total").Int())
		as.Equal(int64(1), body.Get("start").Int())
		as.Len(body.Get("data").Array(), 1)

		_, body = do(call{
			method: http.MethodGet,
			path:   flowable.PathTasks + "?start=10",
		})
		as.Empty(body.Get("data").Array())
		as.True(body.Get("data").IsArray())
	})
}

func TestErrorStatuses(t *testing.T) {
	serve(t, func(do func(call) (int, gjson.Result)) {
		as := assert.New(t)

		status, body := do(call{
			method: http.MethodPost,
			path:   flowable.PathProcessInstances,
			body:   `{"processDefinitionKey":"Unknown"}`,
		})
		as.Equal(http.StatusNotFound, status)
		as.Contains(body.Get("message").String(), "Unknown")

		status, _ = do(call{
			method: http.MethodPost,
			path:   flowable.PathProcessInstances,
			body:   `{}`,
		})
		as.Equal(http.StatusBadRequest, status)

		status, _ = do(call{
			method: http.MethodPost,
			path:   flowable.PathProcessInstances,
			body:   `{not json`,
		})
		as.Equal(http.StatusBadRequest, status)

		status, _ = do(call{
			method: http.MethodPost,
			path:   flowable.PathTasks + "/missing",
			body:   `{"action":"claim"}`,
		})
		as.Equal(http.StatusBadRequest, status)

		status, _ = do(call{
			method: http.MethodPost,
			path:   flowable.PathTasks + "/missing",
			body:   `{"action":"complete"}`,
		})
		as.Equal(http.StatusNotFound, status)

		status, _ = do(call{
			method: http.MethodGet,
			path:   flowable.PathProcessInstances + "/missing",
		})
		as.Equal(http.StatusNotFound, status)

		status, _ = do(call{
			method: http.MethodGet,
			path:   flowable.PathGroups + "/nobody",
		})
		as.Equal(http.StatusNotFound, status)
	})
}

func TestAuthentication(t *testing.T) {
	serve(t, func(do func(call) (int, gjson.Result)) {
		as := assert.New(t)
		path := flowable.PathUsers + "/" + helpers.TestUser

		status, body := do(call{method: http.MethodGet, path: path})
		as.Equal(http.StatusOK, status)
		as.Equal("Frog", body.Get("lastName").String())

		status, _ = do(call{
			method: http.MethodGet,
			path:   path,
			user:   helpers.TestUser,
			pass:   helpers.TestPassword,
		})
		as.Equal(http.StatusOK, status)

		status, _ = do(call{
			method: http.MethodGet,
			path:   path,
			user:   helpers.TestUser,
			pass:   "pig",
		})
		as.Equal(http.StatusUnauthorized, status)
	})
}

func TestHistoricVariablesKeepLatest(t *testing.T) {
	serve(t, func(do func(call) (int, gjson.Result)) {
		as := assert.New(t)
		_, started := do(call{
			method: http.MethodPost,
			path:   flowable.PathProcessInstances,
			body: `{"processDefinitionKey":"Example1","variables":[
				{"name":"n","type":"integer","value":1}]}`,
		})
		id := started.Get("id").String()

		_, tasks := do(call{
			method: http.MethodGet,
			path:   flowable.PathTasks + "?processInstanceId=" + id,
		})
		status, _ := do(call{
			method: http.MethodPost,
			path:   flowable.PathTasks + "/" + tasks.Get("data.0.id").String(),
			body: `{"action":"complete","variables":[
				{"name":"n","type":"integer","value":2}]}`,
		})
		as.Equal(http.StatusOK, status)

		_, vars := do(call{
			method: http.MethodGet,
			path: flowable.PathHistoricVariables +
				"?processInstanceId=" + id,
		})
		as.Equal(int64(1), vars.Get("total").Int())
		as.Equal(int64(2), vars.Get("data.0.variable.value").Int())

		_, details := do(call{
			method: http.MethodGet,
			path:   flowable.PathHistoricDetails + "?processInstanceId=" + id,
		})
		as.Equal(int64(2), details.Get("total").Int())
		as.Equal(int64(1), details.Get("data.1.revision").Int())
	})
}
