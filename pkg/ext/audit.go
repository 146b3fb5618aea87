package ext

import (
	"context"
	"fmt"
	"time"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/spec"
	"github.com/kode4food/bpmspec/pkg/trace"
	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// AuditDump traces the activity history and every variable update of
	// the active instance
	AuditDump struct {
		sink trace.Sink
	}

	// AuditTrail is the recorded history of a single process instance
	AuditTrail struct {
		Scenario   string                  `json:"scenario"`
		Instance   *api.ProcessInstance    `json:"instance"`
		Activities []*api.HistoricActivity `json:"activities"`
		Details    []*api.HistoricDetail   `json:"details"`
		Variables  value.Variables         `json:"variables,omitempty"`
	}
)

const (
	auditHeader   = "Audit trail: "
	detailsHeader = "Final data: "
)

// DumpAuditTrail creates an AuditDump writing to sink. A nil sink writes to
// the scenario's own sink
func DumpAuditTrail(sink trace.Sink) *AuditDump {
	return &AuditDump{sink: sink}
}

func (d *AuditDump) ActionName() string {
	return "dump audit trail"
}

func (d *AuditDump) Execute(s *spec.Scenario) error {
	trail, err := LoadAuditTrail(s)
	if err != nil {
		return err
	}
	sink := d.sink
	if sink == nil {
		sink = s.Sink()
	}

	write := func(format string, args ...any) {
		sink.Write(trace.Phrase{
			Time:     time.Now(),
			Scenario: s.Name(),
			Kind:     trace.KindDetail,
			Text:     fmt.Sprintf(format, args...),
		})
	}

	write(auditHeader)
	for _, a := range trail.Activities {
		write("  : %s", FormatActivity(a))
	}
	write(detailsHeader)
	for _, det := range trail.Details {
		write("  : %s", FormatDetail(det))
	}
	return nil
}

// LoadAuditTrail queries the engine for the history of the scenario's
// active instance
func LoadAuditTrail(s *spec.Scenario) (*AuditTrail, error) {
	p := s.ProcessInstance()
	if p == nil {
		return nil, spec.ErrNoProcessInstance
	}
	return loadAuditTrail(s.Context(), s.Engine(), s.Name(), p, s.Vars())
}

func loadAuditTrail(
	ctx context.Context, eng api.History, name string,
	p *api.ProcessInstance, vars value.Variables,
) (*AuditTrail, error) {
	acts, err := eng.HistoricActivities(ctx, api.HistoricActivityQuery{
		ProcessInstanceID: p.ID,
	})
	if err != nil {
		return nil, err
	}
	details, err := eng.HistoricDetails(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &AuditTrail{
		Scenario:   name,
		Instance:   p,
		Activities: acts,
		Details:    details,
		Variables:  vars,
	}, nil
}

// FormatActivity renders one activity history record on a single line
func FormatActivity(a *api.HistoricActivity) string {
	end := "running"
	if a.EndTime != nil {
		end = a.EndTime.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s (%s) started %s, ended %s",
		a.ActivityID, a.ActivityType,
		a.StartTime.UTC().Format(time.RFC3339), end)
}

// FormatDetail renders one variable update on a single line
func FormatDetail(d *api.HistoricDetail) string {
	return fmt.Sprintf("%s = %s (revision %d, %s)",
		d.Name, d.Value, d.Revision, d.Time.UTC().Format(time.RFC3339))
}
