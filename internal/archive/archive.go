// Package archive defines persistent storage for processed meetings.
//
// A Meeting row captures the final artifacts of one pipeline run, the
// rendered transcript and its summary, so past results can be retrieved
// without reprocessing audio.
package archive

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no meeting matches the requested ID, or
// when the archive is empty.
var ErrNotFound = errors.New("archive: meeting not found")

// Meeting is one archived pipeline result.
type Meeting struct {
	// ID is assigned by the store on save.
	ID int64

	// Title is an optional caller-supplied label.
	Title string

	// Mode records which execution mode produced the result
	// ("sequential" or "parallel").
	Mode string

	// DurationSeconds is the length of the source recording.
	DurationSeconds float64

	// Speakers lists the distinct diarized speaker labels in order of
	// first appearance.
	Speakers []string

	// NoSpeech marks a recording in which diarization found no turns.
	NoSpeech bool

	// Transcript is the rendered "speaker: text" transcript.
	Transcript string

	// Summary is the LLM-generated meeting summary. Empty when
	// summarization was skipped or failed.
	Summary string

	// CreatedAt is assigned by the store on save.
	CreatedAt time.Time
}

// Store persists and retrieves archived meetings. Implementations must
// be safe for concurrent use.
type Store interface {
	// SaveMeeting inserts m and returns its assigned ID.
	SaveMeeting(ctx context.Context, m Meeting) (int64, error)

	// Meeting returns the meeting with the given ID, or ErrNotFound.
	Meeting(ctx context.Context, id int64) (Meeting, error)

	// Latest returns the most recently saved meeting, or ErrNotFound
	// when the archive is empty.
	Latest(ctx context.Context) (Meeting, error)

	// ListMeetings returns up to limit meetings, newest first.
	ListMeetings(ctx context.Context, limit int) ([]Meeting, error)
}
