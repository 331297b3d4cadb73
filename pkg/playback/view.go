package playback

import "playbackd/pkg/models"

// MessageView is the pull-based "what should I show right now" answer for
// one message. Text is the currently revealed prefix, not necessarily the
// full message text.
type MessageView struct {
	ID         string           `json:"id"`
	Sender     models.Sender    `json:"sender"`
	Text       string           `json:"text"`
	Phase      models.PhaseKind `json:"phase"`
	Delivered  bool             `json:"delivered"`
	CreatedTS  int64            `json:"created_ts,omitempty"`
	ShowSender bool             `json:"show_sender,omitempty"`
	ShowFooter bool             `json:"show_footer,omitempty"`
}

// Snapshot renders the thread. Hidden messages are omitted entirely (not
// even a placeholder), loading messages carry no text yet. Evaluating a
// snapshot re-syncs every reveal engine; completed reveals never re-fire
// their end callbacks, so polling is harmless.
func (s *Session) Snapshot(threadID string) ([]MessageView, error) {
	var out []MessageView
	var lerr error
	err := s.Do(func() {
		st, e := s.lookup(threadID)
		if e != nil {
			lerr = e
			return
		}
		for _, m := range st.store.Values() {
			if m.Hidden() {
				continue
			}
			v := MessageView{
				ID:         m.ID,
				Sender:     m.Sender,
				Phase:      m.CurrentPhase().Kind,
				Delivered:  m.Delivered(),
				CreatedTS:  m.CreatedTS,
				ShowSender: m.ShowSender,
				ShowFooter: m.ShowFooter,
			}
			if !m.Loading() {
				if d, ok := st.drivers[m.ID]; ok {
					d.eng.Sync()
					v.Text = d.eng.Displayed()
				} else {
					v.Text = m.Text
				}
			}
			out = append(out, v)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, lerr
}
