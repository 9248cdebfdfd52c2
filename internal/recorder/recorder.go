// Package recorder turns engine callbacks into dispatcher events and writes
// them to the storage backend and the metrics writer.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/battlesim/internal/dispatcher"
	"github.com/OCAP2/battlesim/internal/influx"
	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/battlesim/internal/recorder"

// Dispatcher commands.
const (
	CmdAttack        = ":ATTACK:"
	CmdUnitDestroyed = ":UNIT:DESTROYED:"
	CmdSquadState    = ":SQUAD:STATE:"
	CmdArmyStatus    = ":ARMY:STATUS:"
)

// MetricsWriter receives time-series points. *influx.Manager satisfies it.
type MetricsWriter interface {
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the recorder.
type Dependencies struct {
	Dispatcher *dispatcher.Dispatcher
	Backend    storage.Backend
	Metrics    MetricsWriter
	Logger     *slog.Logger
	BattleID   string
}

// Recorder implements battle.Observer and monitor.StatusSink.
type Recorder struct {
	deps Dependencies

	attacks metric.Int64Counter
	hits    metric.Int64Counter
	damage  metric.Float64Counter
	losses  metric.Int64Counter
}

// New creates a recorder. Counters come from the global OTel meter.
func New(deps Dependencies) (*Recorder, error) {
	if deps.Backend == nil {
		deps.Backend = storage.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	r := &Recorder{deps: deps}
	m := otel.Meter(instrumentationName)

	var err error
	if r.attacks, err = m.Int64Counter("battle.attacks", metric.WithDescription("Attack attempts")); err != nil {
		return nil, fmt.Errorf("creating attacks counter: %w", err)
	}
	if r.hits, err = m.Int64Counter("battle.hits", metric.WithDescription("Successful attacks")); err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}
	if r.damage, err = m.Float64Counter("battle.damage", metric.WithDescription("Damage dealt")); err != nil {
		return nil, fmt.Errorf("creating damage counter: %w", err)
	}
	if r.losses, err = m.Int64Counter("battle.units.destroyed", metric.WithDescription("Units destroyed")); err != nil {
		return nil, fmt.Errorf("creating losses counter: %w", err)
	}

	return r, nil
}

// RegisterHandlers registers all event handlers with the dispatcher.
// Every handler is buffered and blocking so no combat event is dropped.
func (r *Recorder) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdAttack, r.handleAttack, dispatcher.Buffered(10000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(CmdUnitDestroyed, r.handleUnitDestroyed, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(CmdSquadState, r.handleSquadState, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(CmdArmyStatus, r.handleArmyStatus, dispatcher.Buffered(100), dispatcher.Blocking(), dispatcher.Logged())
}

func (r *Recorder) OnAttack(e core.AttackEvent) {
	r.dispatch(CmdAttack, e)
}

func (r *Recorder) OnUnitDestroyed(e core.UnitDestroyedEvent) {
	r.dispatch(CmdUnitDestroyed, e)
}

func (r *Recorder) OnSquadState(e core.SquadStateEvent) {
	r.dispatch(CmdSquadState, e)
}

func (r *Recorder) OnStatus(s core.ArmyStatus) {
	r.dispatch(CmdArmyStatus, s)
}

func (r *Recorder) dispatch(command string, payload any) {
	if r.deps.Dispatcher == nil {
		return
	}
	_, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{Command: command, Payload: payload})
	switch {
	case err == nil:
	case errors.Is(err, dispatcher.ErrClosed):
		r.deps.Logger.Debug("event after dispatcher close", "command", command)
	default:
		r.deps.Logger.Error("failed to dispatch event", "command", command, "error", err)
	}
}

func (r *Recorder) handleAttack(e dispatcher.Event) (any, error) {
	ev, ok := e.Payload.(core.AttackEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, CmdAttack)
	}

	attrs := metric.WithAttributes(
		attribute.String("army", ev.AttackerArmy),
		attribute.String("strategy", ev.Strategy),
	)
	r.attacks.Add(context.Background(), 1, attrs)
	if ev.Success {
		r.hits.Add(context.Background(), 1, attrs)
		r.damage.Add(context.Background(), ev.Damage, attrs)
	}

	return nil, errors.Join(
		r.deps.Backend.RecordAttack(&ev),
		r.writePoint(influx.BucketEvents, func() *influxdb2_write.Point { return influx.AttackPoint(r.deps.BattleID, ev) }),
	)
}

func (r *Recorder) handleUnitDestroyed(e dispatcher.Event) (any, error) {
	ev, ok := e.Payload.(core.UnitDestroyedEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, CmdUnitDestroyed)
	}

	r.losses.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("army", ev.Army),
		attribute.String("kind", ev.Kind),
	))

	return nil, errors.Join(
		r.deps.Backend.RecordUnitDestroyed(&ev),
		r.writePoint(influx.BucketEvents, func() *influxdb2_write.Point { return influx.UnitDestroyedPoint(r.deps.BattleID, ev) }),
	)
}

func (r *Recorder) handleSquadState(e dispatcher.Event) (any, error) {
	ev, ok := e.Payload.(core.SquadStateEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, CmdSquadState)
	}
	return nil, r.deps.Backend.RecordSquadState(&ev)
}

func (r *Recorder) handleArmyStatus(e dispatcher.Event) (any, error) {
	st, ok := e.Payload.(core.ArmyStatus)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, CmdArmyStatus)
	}

	return nil, errors.Join(
		r.deps.Backend.RecordStatus(&st),
		r.writePoint(influx.BucketStatus, func() *influxdb2_write.Point { return influx.StatusPoint(r.deps.BattleID, st) }),
	)
}

// writePoint builds the point only when a metrics writer is configured.
func (r *Recorder) writePoint(bucket string, build func() *influxdb2_write.Point) error {
	if r.deps.Metrics == nil {
		return nil
	}
	return r.deps.Metrics.WritePoint(bucket, build())
}
