// pkg/core/status.go
package core

import "time"

// ArmyStatus is a periodic sample of an army's strength during a battle.
type ArmyStatus struct {
	Time         time.Time
	Army         string
	ActiveSquads int
	TotalSquads  int
	ActiveUnits  int
	TotalUnits   int
	TotalHealth  float64
}
