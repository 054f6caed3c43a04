package sequencer

import (
	"errors"
	"fmt"
)

var (
	ErrPatternIndex = errors.New("pattern index out of range")
	ErrSongIndex    = errors.New("song index out of range")
)

// PlaybackContext is everything the transport reads while playing: the
// project and which pattern or song is selected. Song is -1 in pattern mode.
type PlaybackContext struct {
	Project *Project
	Pattern int
	Song    int
}

// NewPlaybackContext selects the first pattern of project in pattern mode.
func NewPlaybackContext(project *Project) *PlaybackContext {
	return &PlaybackContext{Project: project, Song: -1}
}

// Check reports whether the selection points at existing data.
func (c *PlaybackContext) Check() error {
	if c.Project == nil {
		return errors.New("playback context has no project")
	}
	if c.Pattern < 0 || c.Pattern >= len(c.Project.Patterns) {
		return fmt.Errorf("%w: %d", ErrPatternIndex, c.Pattern)
	}
	if c.Song >= len(c.Project.Songs) {
		return fmt.Errorf("%w: %d", ErrSongIndex, c.Song)
	}
	if c.Song >= 0 && len(c.Project.Songs[c.Song].Rows) == 0 {
		return fmt.Errorf("song %d has no rows", c.Song)
	}
	return nil
}

// SongMode reports whether a song is selected.
func (c *PlaybackContext) SongMode() bool {
	return c.Song >= 0
}

func (c *PlaybackContext) song() *Song {
	if c.Song < 0 || c.Song >= len(c.Project.Songs) {
		return nil
	}
	return c.Project.Songs[c.Song]
}
