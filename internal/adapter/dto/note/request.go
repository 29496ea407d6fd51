package note

// UpdateRequest replaces all four sections of a note. This is a
// whole-document update: omitted fields clear their section.
type UpdateRequest struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}
