package tasks

import "taskmind/internal/models"

// Uncategorized names the project of tasks without one.
const Uncategorized = "Uncategorized"

// ProjectCount is one sidebar project entry.
type ProjectCount struct {
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// Groups lists the projects and tags present in a collection.
type Groups struct {
	Projects []ProjectCount `json:"projects"`
	Tags     []string       `json:"tags"`
}

// GroupTasks collects distinct projects and tags in first-seen order.
func GroupTasks(tasks []models.Task) Groups {
	g := Groups{Projects: []ProjectCount{}, Tags: []string{}}
	projectIdx := map[string]int{}
	seenTag := map[string]struct{}{}

	for _, t := range tasks {
		name := t.Project
		if name == "" {
			name = Uncategorized
		}
		idx, ok := projectIdx[name]
		if !ok {
			idx = len(g.Projects)
			projectIdx[name] = idx
			g.Projects = append(g.Projects, ProjectCount{Name: name})
		}
		g.Projects[idx].Total++
		if t.Completed {
			g.Projects[idx].Completed++
		}

		for _, tag := range t.Tags {
			if tag == "" {
				continue
			}
			if _, dup := seenTag[tag]; dup {
				continue
			}
			seenTag[tag] = struct{}{}
			g.Tags = append(g.Tags, tag)
		}
	}
	return g
}
