package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentStartSet
	IntentPauseSet
	IntentResumeSet
	IntentResetSet
	IntentFinishSet
	IntentStartRest
	IntentPauseRest
	IntentResumeRest
	IntentResetRest
	IntentSetRest     // payload: seconds
	IntentSetTempo    // payload: "<eccentric> <hold> <concentric>" in seconds
	IntentSetExercise // payload: exercise name
	IntentToneOn
	IntentToneOff
	IntentVoiceOn
	IntentVoiceOff
	IntentStatus
	IntentHistory
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	for name, t := range intentNames {
		if t == i {
			return name
		}
	}
	return "unknown"
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string // optional argument, e.g. rest seconds
}

// intentNames maps snake_case names to IntentType values.
var intentNames = map[string]IntentType{
	"start_set":    IntentStartSet,
	"pause_set":    IntentPauseSet,
	"resume_set":   IntentResumeSet,
	"reset_set":    IntentResetSet,
	"finish_set":   IntentFinishSet,
	"start_rest":   IntentStartRest,
	"pause_rest":   IntentPauseRest,
	"resume_rest":  IntentResumeRest,
	"reset_rest":   IntentResetRest,
	"set_rest":     IntentSetRest,
	"set_tempo":    IntentSetTempo,
	"set_exercise": IntentSetExercise,
	"tone_on":      IntentToneOn,
	"tone_off":     IntentToneOff,
	"voice_on":     IntentVoiceOn,
	"voice_off":    IntentVoiceOff,
	"status":       IntentStatus,
	"history":      IntentHistory,
	"help":         IntentHelp,
	"quit":         IntentQuit,
	"unknown":      IntentUnknown,
}

// IntentFromString converts a snake_case intent name to an IntentType.
// Returns IntentUnknown for unrecognized names.
func IntentFromString(name string) IntentType {
	if t, ok := intentNames[name]; ok {
		return t
	}
	return IntentUnknown
}
