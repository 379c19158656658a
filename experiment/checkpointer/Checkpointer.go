// Package checkpointer implements periodic checkpointing of learned
// agents during an experiment
package checkpointer

// Saveable is an object that can persist itself under a named
// checkpoint file
type Saveable interface {
	Save(filename string) error
}

// Checkpointer saves Saveable objects on a schedule. Checkpoint is
// called once per episode by the running experiment.
type Checkpointer interface {
	Checkpoint() error
}
