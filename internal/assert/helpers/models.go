package helpers

import (
	"time"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/memengine"
	"github.com/kode4food/bpmspec/pkg/value"
)

// Test users, all with TestPassword
const (
	TestUser     = "kermit"
	TestGroup    = "admins"
	TestPassword = "frog"
)

// TestEpoch is the fixed time test engines start at
var TestEpoch = time.Date(2015, 6, 1, 9, 0, 0, 0, time.UTC)

// StandardModels returns the process definitions deployed into every test
// engine
func StandardModels() []*memengine.Model {
	return []*memengine.Model{
		memengine.NewModel("Example1").
			StartEvent("start").
			UserTask("doSomething").
			EndEvent("end"),

		memengine.NewModel("Invoice").
			StartEvent("start").
			ServiceTask("calculate", calculate).
			ScriptTask("stamp", setVar("stamped", value.Bool(true))).
			Gateway("large", routeBySize).
			EndEvent("autoApproved").
			UserTask("approve").
			EndEvent("approved"),

		memengine.NewModel("Root").
			StartEvent("start").
			CallActivity("callChild", "ChildX").
			EndEvent("end"),
		memengine.NewModel("ChildX").
			CallActivity("callSub", "SubA").
			EndEvent("end"),
		memengine.NewModel("SubA").
			ServiceTask("deep", setVar("deep", value.Bool(true))).
			EndEvent("end"),

		memengine.NewModel("Siblings").
			CallActivity("callB", "SubB").
			CallActivity("callC", "SubC").
			EndEvent("end"),
		memengine.NewModel("SubB").EndEvent("end"),
		memengine.NewModel("SubC").EndEvent("end"),

		memengine.NewModel("Reminder").
			StartEvent("start").
			Timer("wait2h", 2*time.Hour).
			EndEvent("end"),

		memengine.NewModel("Async").
			StartEvent("start").
			AsyncServiceTask("notify", setVar("notified", value.Bool(true))).
			EndEvent("end"),

		memengine.NewModel("Orders").
			WithMessageStart("order.placed").
			StartEvent("start").
			MessageCatch("awaitPayment", "order.paid").
			EndEvent("end"),

		memengine.NewModel("TenantOnly").
			WithTenant("acme").
			StartEvent("start").
			EndEvent("end"),
	}
}

// NewTestMemEngine creates an in-memory engine at TestEpoch with the
// standard models and test identities
func NewTestMemEngine() *memengine.Engine {
	eng := memengine.New(
		memengine.WithClock(TestEpoch),
		memengine.WithPollInterval(DefaultPollInterval),
	)
	eng.MustDeploy(StandardModels()...)
	if err := eng.AddUser(api.User{
		ID:        TestUser,
		FirstName: "Kermit",
		LastName:  "Frog",
		Email:     "kermit@example.com",
	}, TestPassword, TestGroup); err != nil {
		panic(err)
	}
	return eng
}

func setVar(name string, v value.Value) memengine.ServiceFunc {
	return func(value.Variables) (value.Variables, error) {
		return value.Variables{name: v}, nil
	}
}

func calculate(vars value.Variables) (value.Variables, error) {
	amount, _ := vars["amount"].Float()
	return value.Variables{"total": value.Number(amount * 1.2)}, nil
}

func routeBySize(vars value.Variables) string {
	if total, _ := vars["total"].Float(); total > 1000 {
		return "approve"
	}
	return "autoApproved"
}
