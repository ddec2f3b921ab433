package agent

// Spec identifies one remote model in the roster.
type Spec struct {
	DisplayName string
	ModelID     string
}

var roster = [...]Spec{
	{DisplayName: "DeepSeek-R1", ModelID: "deepseek-ai/DeepSeek-R1"},
	{DisplayName: "Llama 3.3", ModelID: "meta-llama/Llama-4-Maverick-17B-128E-Instruct-FP8"},
	{DisplayName: "Qwen 2.5 Coder", ModelID: "Qwen/Qwen2.5-Coder-32B-Instruct"},
}

// Roster returns the fixed agent order. Callers receive a copy.
func Roster() []Spec {
	out := make([]Spec, len(roster))
	copy(out, roster[:])
	return out
}

func (s Spec) String() string {
	return s.DisplayName + " (" + s.ModelID + ")"
}
