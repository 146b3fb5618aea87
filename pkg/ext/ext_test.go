package ext_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"

	"github.com/kode4food/bpmspec/internal/assert"
	"github.com/kode4food/bpmspec/internal/assert/helpers"
	"github.com/kode4food/bpmspec/pkg/ext"
	"github.com/kode4food/bpmspec/pkg/spec"
	"github.com/kode4food/bpmspec/pkg/trace"
)

func invoice(env *helpers.TestEnv, amount float64) *spec.Scenario {
	return env.Scenario("small invoice").
		WhenEventOccurs("An invoice arrives", "Invoice",
			spec.Set("total", "stamped"),
			spec.Vars(spec.Pair("amount", amount))).
		ThenProcessIsComplete()
}

func TestExpectPasses(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).
			ThenExtension(ext.Expect(`total > 599 && total < 601 && stamped`))
		as.ScenarioPassed(s)
		as.Contains(env.Recorder.Texts(),
			"THEN: extension 'expect total > 599 && total < 601 && "+
				"stamped' is run",
		)
	})
}

func TestExpectFails(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).ThenExtension(ext.Expect(`total > 1000`))
		err := as.ScenarioFailed(s, ext.ErrExpectationFailed)
		as.ErrorIs(err, spec.ErrExtensionFailed)
	})
}

func TestExpectUndefinedVariable(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).ThenExtension(ext.Expect(`missing == nil`))
		as.ScenarioPassed(s)
	})
}

func TestExpectCompileError(t *testing.T) {
	as := assert.New(t)
	as.ErrorIs(ext.Expect(`total >`).Validate(), ext.ErrExpressionCompile)
	as.ErrorIs(ext.Expect(`"text"`).Validate(), ext.ErrExpressionCompile)
	as.NoError(ext.Expect(`a == b`).Validate())
}

func TestLuaPasses(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).ThenExtension(ext.Lua(`
			assert(instance_id ~= nil)
			return vars.stamped and vars.total > 599
		`))
		as.ScenarioPassed(s)
	})
}

func TestLuaNoResultPasses(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).ThenExtension(ext.Lua(`local x = 1`))
		as.ScenarioPassed(s)
	})
}

func TestLuaRejects(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).
			ThenExtension(ext.Lua(`return vars.total > 1000`))
		as.ScenarioFailed(s, ext.ErrLuaRejected)
	})
}

func TestLuaRuntimeError(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).ThenExtension(ext.Lua(`error("boom")`))
		as.ScenarioFailed(s, ext.ErrLuaExecution)
	})
}

func TestLuaSandbox(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).ThenExtension(ext.Lua(`os.exit(1)`))
		as.ScenarioFailed(s, ext.ErrLuaExecution)
	})
}

func TestLuaValidate(t *testing.T) {
	as := assert.New(t)
	as.NoError(ext.Lua(`return true`).Validate())
	as.ErrorIs(ext.Lua(`return (`).Validate(), ext.ErrLuaLoad)
}

func TestDumpAuditTrail(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		rec := trace.NewRecorder()
		s := invoice(env, 500).ThenExtension(ext.DumpAuditTrail(rec))
		as.ScenarioPassed(s)

		texts := rec.Texts()
		as.Require.NotEmpty(texts)
		as.Equal("Audit trail: ", texts[0])
		as.Contains(texts, "Final data: ")
		for _, p := range rec.Phrases() {
			as.Equal(trace.KindDetail, p.Kind)
			as.Equal("small invoice", p.Scenario)
		}

		joined := strings.Join(texts, "\n")
		as.Contains(joined, "calculate (serviceTask)")
		as.Contains(joined, "autoApproved (endEvent)")
		as.Contains(joined, "amount = 500")
	})
}

func TestDumpAuditTrailDefaultSink(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := invoice(env, 500).ThenExtension(ext.DumpAuditTrail(nil))
		as.ScenarioPassed(s)
		as.Contains(env.Recorder.Texts(), "Audit trail: ")
	})
}

func TestArchiveAuditTrail(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		ctx := context.Background()

		b := memblob.OpenBucket(nil)
		defer func() { _ = b.Close() }()

		a, err := ext.ArchiveAuditTrail(b, "audit")
		as.Require.NoError(err)

		s := invoice(env, 500).ThenExtension(a)
		as.ScenarioPassed(s)

		key := ext.ArchiveKey("audit", s.Name(),
			string(s.ProcessInstance().ID))
		as.True(strings.HasPrefix(key, "audit/small_invoice/"))

		data, err := b.ReadAll(ctx, key)
		as.Require.NoError(err)

		var trail ext.AuditTrail
		as.Require.NoError(json.Unmarshal(data, &trail))
		as.Equal("small invoice", trail.Scenario)
		as.Equal(s.ProcessInstance().ID, trail.Instance.ID)
		as.NotEmpty(trail.Activities)
		as.NotEmpty(trail.Details)
		total, ok := trail.Variables["total"].Float()
		as.True(ok)
		as.InDelta(600, total, 0.001)

		attrs, err := b.Attributes(ctx, key)
		as.Require.NoError(err)
		as.Equal("application/json", attrs.ContentType)
	})
}

func TestArchiveRequiresBucket(t *testing.T) {
	as := assert.New(t)
	_, err := ext.ArchiveAuditTrail(nil, "audit")
	as.ErrorIs(err, ext.ErrBucketRequired)
}

func TestArchiveKey(t *testing.T) {
	as := assert.New(t)
	as.Equal("s/i.json", ext.ArchiveKey("", "s", "i"))
	as.Equal("p/s/i.json", ext.ArchiveKey("p", "s", "i"))
	as.Equal("p/s/i.json", ext.ArchiveKey("p/", "s", "i"))
	as.Equal("p/a_b_c/i.json", ext.ArchiveKey("p", "a/b c", "i"))
	as.Equal("p/_/i.json", ext.ArchiveKey("p", " ", "i"))
}

var _ ext.BucketWriter = (*blob.Bucket)(nil)
