package battle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/battlesim/pkg/core"
)

// Result is the settled state of a battle.
type Result struct {
	Armies    []*Army
	Survivors []*Army
	// Winner is nil when several armies survived or none did.
	Winner    *Army
	Duration  time.Duration
	Cancelled bool
}

// Run joins every army into the battle and waits until all squads have
// stopped fighting. A cancelled ctx stops every squad loop; the partial
// result is returned along with the context error.
func Run(ctx context.Context, env *Env, armies []*Army) (Result, error) {
	if len(armies) < 2 {
		return Result{}, fmt.Errorf("%d armies: %w", len(armies), ErrInvalidArmyCount)
	}
	env = env.normalize()
	start := env.Clock.Now()

	joined := make([]<-chan error, len(armies))
	for i, a := range armies {
		joined[i] = a.JoinBattle(ctx, armies)
	}

	var errs []error
	for _, ch := range joined {
		if err := <-ch; err != nil {
			errs = append(errs, err)
		}
	}

	res := Result{
		Armies:    armies,
		Duration:  env.Clock.Since(start),
		Cancelled: ctx.Err() != nil,
	}
	for _, a := range armies {
		if a.IsActive() {
			res.Survivors = append(res.Survivors, a)
		}
	}
	if len(res.Survivors) == 1 {
		res.Winner = res.Survivors[0]
	}

	log := env.Logger.With("duration", res.Duration, "survivors", len(res.Survivors))
	switch {
	case res.Cancelled:
		log.Warn("battle cancelled")
	case res.Winner != nil:
		log.Info("battle won", "winner", res.Winner.Name())
	default:
		log.Info("battle ended without a winner")
	}

	return res, errors.Join(errs...)
}

// Outcome converts the result into its recordable form.
func (r Result) Outcome(battleID string, end time.Time) core.Outcome {
	out := core.Outcome{
		BattleID:  battleID,
		EndTime:   end,
		Duration:  r.Duration,
		Cancelled: r.Cancelled,
	}
	if r.Winner != nil {
		out.Winner = r.Winner.Name()
	}
	for _, a := range r.Survivors {
		out.Survivors = append(out.Survivors, a.Name())
	}
	for _, a := range r.Armies {
		out.Armies = append(out.Armies, a.Snapshot())
	}
	return out
}
