package reconcile

import "github.com/yungbote/inkforge-backend/internal/domain/knowledge"

// Group is every observation in a batch that refers to the same character.
type Group struct {
	Key          string
	DisplayName  string
	Observations []knowledge.Observation
}

// GroupByName buckets observations by name key in first-seen order. The first spelling
// becomes the display name.
func GroupByName(observations []knowledge.Observation) []Group {
	index := map[string]int{}
	var out []Group
	for _, obs := range observations {
		key := knowledge.NameKey(obs.Name)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Group{Key: key, DisplayName: knowledge.CleanName(obs.Name)})
		}
		out[i].Observations = append(out[i].Observations, obs)
	}
	return out
}
