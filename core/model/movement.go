package model

// MovementRecord tracks one simulated transit while it is in flight.
// Records are ephemeral: created when a robot departs and discarded on
// arrival or failure. At most one record exists per robot at a time.
type MovementRecord struct {
	RobotID   string   `json:"robot_id"`
	RobotName string   `json:"robot_name"`
	TaskID    string   `json:"task_id"`
	From      Location `json:"from"`
	To        Location `json:"to"`
	Active    bool     `json:"active"`
}
