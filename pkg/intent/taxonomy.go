package intent

// Leaf is a terminal intent tag. The set is closed and known at build time.
type Leaf string

const (
	LeafGeneralTalk         Leaf = "general_talk"
	LeafEndSession          Leaf = "end_session"
	LeafVenueRecommendation Leaf = "venue_recommendation"
	LeafConfirmBooking      Leaf = "confirm_booking"
)

// Node is one level of the intent taxonomy. A node either carries a Leaf or
// a non-empty Subclasses slice, never both.
type Node struct {
	Tag         string
	Description string
	Leaf        Leaf
	Subclasses  []*Node
}

func (n *Node) IsLeaf() bool {
	return len(n.Subclasses) == 0
}

// Taxonomy returns the conversation intent tree: inquiry splits into booking
// confirmation vs venue exploration, flat tags cover small talk and the
// explicit end-of-chat request.
func Taxonomy() *Node {
	return &Node{
		Tag: "root",
		Subclasses: []*Node{
			{
				Tag:         "inquiry",
				Description: "Inquiry regarding venue details, including booking process, venue specifications, available amenities, and related information. If the user wants to book but the chat is too early (first 2 messages), go to 'general_talk' instead. If the chat is long enough, use this class.",
				Subclasses: []*Node{
					{
						Tag:         "confirm_booking",
						Description: "Use this subclass when the user clearly indicates they want to confirm or finalize. Only for the final decision of booking, not just providing extra detail.",
						Leaf:        LeafConfirmBooking,
					},
					{
						Tag:         "venue_recommendation",
						Description: "Use this subclass when the user is still exploring options - asking for venue details, comparing choices, or responding to the assistant's suggestions about potential venues. If the chat history never gave a venue comparison to the user, you must choose this subclass. IMPORTANT: Also use this subclass when the user asks for 'best venues', 'venue recommendations', 'suggest venues', or any request to see available venues in a location.",
						Leaf:        LeafVenueRecommendation,
					},
				},
			},
			{
				Tag:         "general_talk",
				Description: "Very general message such as basic confirming, greetings, thanks, apologies, and so on. DO NOT use this class if the user asks for venue recommendations or best venues - use 'inquiry/venue_recommendation' instead.",
				Leaf:        LeafGeneralTalk,
			},
			{
				Tag:         "end_session",
				Description: "Choose this class if the user wants to end the chat session.",
				Leaf:        LeafEndSession,
			},
		},
	}
}

func (n *Node) child(tag string) *Node {
	for _, c := range n.Subclasses {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}
