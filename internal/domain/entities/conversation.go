package entities

import (
	"fmt"
	"strings"
	"time"
)

// Utterance is one diarized speaker turn in a conversation log. Sequence
// numbers are assigned by the conversation buffer in arrival order, starting
// at 1, strictly increasing per session.
type Utterance struct {
	SequenceNumber  int     `json:"sequence_number"`
	Speaker         string  `json:"speaker"`
	Text            string  `json:"text"`
	StartOffset     float64 `json:"start_offset"`
	EndOffset       float64 `json:"end_offset"`
	Confidence      float64 `json:"confidence,omitempty"`
	SourceSegmentID string  `json:"source_segment_id"`
}

// Summary is one rolling summary generated over a slice of the utterance log.
type Summary struct {
	SequenceNumber int       `json:"sequence_number"`
	Text           string    `json:"text"`
	GeneratedAt    time.Time `json:"generated_at"`
	FromSequence   int       `json:"from_sequence"`
	ToSequence     int       `json:"to_sequence"`

	// Generation stamps which lifecycle phase of the session produced the
	// summary; results stamped before the terminal generation are discarded
	// when the session ends.
	Generation uint64 `json:"-"`
}

// TranscriptText renders an utterance log as the speaker-labeled plain text
// fed to note synthesis. Both ingestion paths (batch recordings and live
// conversations) converge on this format.
func TranscriptText(utterances []Utterance) string {
	var b strings.Builder
	for _, u := range utterances {
		fmt.Fprintf(&b, "%s: %s\n", u.Speaker, u.Text)
	}
	return b.String()
}

// SOAPSections holds the four sections of a structured clinical note.
type SOAPSections struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}
