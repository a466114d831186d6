// Package routing maps mailbox labels to forum threads of the Telegram group.
package routing

import (
	"fmt"
	"strings"

	"mailforward/internal/domain/mail"
)

// Route binds one label name to a thread id. Routes keep the order they
// were configured in; that order decides which thread wins when a message
// carries several configured labels.
type Route struct {
	Label    string
	ThreadID int64
}

// MissingLabelsError lists configured labels the mailbox does not have.
type MissingLabelsError struct {
	Labels []string
}

func (e *MissingLabelsError) Error() string {
	return fmt.Sprintf("labels not found in mailbox: %s", strings.Join(e.Labels, ", "))
}

type resolved struct {
	labelID  string
	threadID int64
}

// Router resolves label ids of a message to a destination thread.
type Router struct {
	routes []resolved
}

// NewRouter matches every route against the mailbox labels by
// case-insensitive name. All unknown labels are reported at once.
func NewRouter(routes []Route, labels []mail.Label) (*Router, error) {
	byName := make(map[string]string, len(labels))
	for _, l := range labels {
		key := strings.ToLower(l.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = l.ID
		}
	}

	r := &Router{routes: make([]resolved, 0, len(routes))}
	var missing []string
	for _, rt := range routes {
		id, ok := byName[strings.ToLower(rt.Label)]
		if !ok {
			missing = append(missing, rt.Label)
			continue
		}
		r.routes = append(r.routes, resolved{labelID: id, threadID: rt.ThreadID})
	}

	if len(missing) > 0 {
		return nil, &MissingLabelsError{Labels: missing}
	}
	return r, nil
}

// Route returns the thread of the first configured route whose label is
// among labelIDs.
func (r *Router) Route(labelIDs []string) (int64, bool) {
	for _, rt := range r.routes {
		for _, id := range labelIDs {
			if id == rt.labelID {
				return rt.threadID, true
			}
		}
	}
	return 0, false
}

// LabelIDs returns the resolved label ids in configured order.
func (r *Router) LabelIDs() []string {
	ids := make([]string, len(r.routes))
	for i, rt := range r.routes {
		ids[i] = rt.labelID
	}
	return ids
}
