package compatibility

import "github.com/limaJavier/allocation/pkg/model"

// Oracle scores how well a resident fits into a room given the room's current occupants.
// Implementations must be pure functions of their inputs and must flag a hard conflict
// whenever a configured hard rule is violated against any occupant.
type Oracle interface {
	// Evaluates the resident against the occupants (which never include the resident itself)
	Evaluate(resident model.Resident, occupants []model.Resident, config model.AllocationConfig) (model.RoomMatchResult, error)
}

// OracleFunc adapts a plain function to the Oracle interface
type OracleFunc func(resident model.Resident, occupants []model.Resident, config model.AllocationConfig) (model.RoomMatchResult, error)

func (f OracleFunc) Evaluate(resident model.Resident, occupants []model.Resident, config model.AllocationConfig) (model.RoomMatchResult, error) {
	return f(resident, occupants, config)
}
