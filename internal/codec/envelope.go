package codec

// Envelope is the fixed shape stored in the data column of checklist logs.
type Envelope struct {
	Answers           any            `json:"answers,omitempty"`
	Evidence          map[string]any `json:"evidence,omitempty"`
	Type              string         `json:"type,omitempty"`
	MaintenanceTarget string         `json:"maintenanceTarget,omitempty"`
}

// NewEnvelope builds the envelope written for a new log.
func NewEnvelope(answers any, evidence map[string]any, logType, maintenanceTarget string) Envelope {
	return Envelope{
		Answers:           answers,
		Evidence:          evidence,
		Type:              logType,
		MaintenanceTarget: maintenanceTarget,
	}
}

// Encode serializes the envelope.
func (e Envelope) Encode() (string, error) {
	return Encode(e)
}

// DecodeEnvelope reads a stored data column.
//
// Rows written before the envelope existed hold the bare answers map; for
// those, and for any blob without a non-null "answers" key, Answers is the
// whole parsed value. Evidence is never nil.
func DecodeEnvelope(s string) Envelope {
	env := Envelope{Evidence: map[string]any{}}

	value, ok := Decode(s)
	if !ok || value == nil {
		env.Answers = map[string]any{}
		return env
	}

	obj, isObj := value.(map[string]any)
	if !isObj {
		env.Answers = value
		return env
	}

	if answers, found := obj["answers"]; found && answers != nil {
		env.Answers = answers
	} else {
		env.Answers = obj
	}
	if evidence, isMap := obj["evidence"].(map[string]any); isMap {
		env.Evidence = evidence
	}
	if t, isStr := obj["type"].(string); isStr {
		env.Type = t
	}
	if target, isStr := obj["maintenanceTarget"].(string); isStr {
		env.MaintenanceTarget = target
	}
	return env
}
