package httpapi

import "net/http"

func (r *Router) handleToggleSubscription(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	subscribed, err := r.channels.ToggleSubscription(req.Context(), user.ID, req.PathValue("channelId"))
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	writeData(w, http.StatusOK, map[string]any{"subscribed": subscribed}, message)
}

func (r *Router) handleRecordView(w http.ResponseWriter, req *http.Request) {
	user, ok := currentUser(w, req)
	if !ok {
		return
	}
	if err := r.channels.RecordView(req.Context(), user.ID, req.PathValue("videoId")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{}, "View recorded")
}
