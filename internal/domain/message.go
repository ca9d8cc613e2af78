package domain

// Message is an inbound chat message as delivered by the gateway.
type Message struct {
	ID        string `json:"id"`
	GuildID   string `json:"guild_id,omitempty"` // empty for direct messages
	ChannelID string `json:"channel_id"`

	AuthorID   string   `json:"author_id"`
	AuthorName string   `json:"author_name"`
	RoleIDs    []string `json:"role_ids,omitempty"`

	Content string `json:"content"`
}

// HasRole reports whether the author carries the given role id.
func (m Message) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
