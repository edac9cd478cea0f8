package types

// Persona selects the assistant's built-in character prompt.
type Persona string

const (
	PersonaAssistant Persona = "assistant"
	PersonaTeacher   Persona = "teacher"
	PersonaDeveloper Persona = "developer"
	PersonaCreator   Persona = "creator"
	PersonaAnalyst   Persona = "analyst"
	PersonaCustom    Persona = "custom"
)

// ChatMode selects the response strategy for a turn.
type ChatMode string

const (
	// ModeStandard is the default conversational mode.
	ModeStandard ChatMode = "standard"

	// ModeResearch always augments with web search and asks for sourced,
	// structured answers.
	ModeResearch ChatMode = "research"

	// ModeLabs asks for complete runnable artifacts (single-file HTML and
	// the like).
	ModeLabs ChatMode = "labs"
)

// ResponseLength bounds how verbose replies should be.
type ResponseLength string

const (
	LengthBrief    ResponseLength = "brief"
	LengthBalanced ResponseLength = "balanced"
	LengthDetailed ResponseLength = "detailed"
)

// Creativity maps to sampling temperature.
type Creativity string

const (
	CreativityPrecise  Creativity = "precise"
	CreativityBalanced Creativity = "balanced"
	CreativityCreative Creativity = "creative"
)

// Temperature returns the sampling temperature for the creativity level.
func (c Creativity) Temperature() float32 {
	switch c {
	case CreativityPrecise:
		return 0.2
	case CreativityCreative:
		return 1.0
	default:
		return 0.7
	}
}
