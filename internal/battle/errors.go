package battle

import "errors"

// Construction errors. Constructors wrap them, so match with errors.Is.
var (
	ErrInvalidArmyCount       = errors.New("there must be at least two armies on the battlefield")
	ErrInvalidSquadCount      = errors.New("there should be at least two squads in army")
	ErrInvalidUnitCount       = errors.New("number of units per squad must be between 5 and 10")
	ErrInvalidStrategy        = errors.New("strategy can be 1 (strongest), 2 (weakest) or 3 (random)")
	ErrInvalidExperience      = errors.New("experience should be a number between 0 and 50")
	ErrInvalidHealth          = errors.New("health should be a number between 0 and 100")
	ErrInvalidRecharge        = errors.New("recharge should be between 100ms and 2000ms")
	ErrInvalidVehicleRecharge = errors.New("vehicle recharge must be above 1000ms and at most 2000ms")
	ErrInvalidOperatorCount   = errors.New("there must be at least 1 operator per vehicle")
)
