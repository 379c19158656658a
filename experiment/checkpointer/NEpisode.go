package checkpointer

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	episodes int
	object   Saveable

	// filename returns the string filename of the file to save the
	// object in. To save each checkpoint in a separate file with an
	// incremented number as a suffix (file1.bin, file2.bin, ...,
	// fileK.bin), use FilenameEnumerator to generate this function.
	filename func() string
}

// NewNEpisode returns a checkpointer that saves an object every n
// episodes
func NewNEpisode(n int, object Saveable,
	filename func() string) Checkpointer {
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the tracked object if an episode boundary on the
// checkpointing schedule has been reached
func (n *nEpisode) Checkpoint() error {
	n.episodes++
	if n.episodes%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}
