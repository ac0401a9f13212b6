package record

// MockCalls returns the static fallback call list. Each call gets a fresh
// copy so callers may mutate it.
func MockCalls() []CallRecord {
	return []CallRecord{
		{
			ID:          "rec1",
			Timestamp:   "2024-05-20T14:30:00.000Z",
			ContactName: "Brandon Gilles",
			PhoneNumber: "+1555010203",
			Duration:    "14m 22s",
			Transcript:  "Hey, it's Brandon. I wanted to follow up on the Horizon project. We need to finalize the API documentation by next Tuesday if we want to hit the Q3 launch date. Also, Elena mentioned the budget for the server migration might need an extra 15% padding. Let's talk about that on Monday morning.",
			ExecutiveBrief: &ExecutiveBrief{
				Title:   "Actionable Input: Horizon Project Timeline & Budget",
				Summary: "Brandon requested final API documentation for the Horizon project by next Tuesday to maintain the Q3 schedule. A potential 15% budget increase for server migration was also flagged.",
				ActionItems: []string{
					"Finalize API documentation by end of day Tuesday.",
					"Review server migration budget with Elena.",
					"Schedule Monday morning sync with Brandon.",
				},
				Tags:      []string{"#horizon", "#deadline", "#budget"},
				Sentiment: SentimentNeutral,
			},
			Tags:   []string{"#horizon", "#deadline", "#budget"},
			Status: StatusCompleted,
		},
		{
			ID:          "rec2",
			Timestamp:   "2024-05-20T09:00:00.000Z",
			ContactName: "Elena Rodriguez",
			PhoneNumber: "+1555040506",
			Duration:    "08m 15s",
			Transcript:  "Good morning. Regarding the logistics contract, we are seeing some delays at the port. I'll need you to review the force majeure clause in the new agreement. We're looking at a 3-day buffer for current shipments. Send me a quick confirmation once you've looked it over.",
			ExecutiveBrief: &ExecutiveBrief{
				Title:   "Actionable Input: Logistics Contract Review",
				Summary: "Elena reported port delays and requested a legal review of the force majeure clause in the new logistics contract. A 3-day buffer is currently being implemented.",
				ActionItems: []string{
					"Review force majeure clause in Logistics Contract.",
					"Confirm contract adjustment with Elena.",
					"Update shipment tracking dashboard with 3-day buffer.",
				},
				Tags:      []string{"#logistics", "#legal", "#urgent"},
				Sentiment: SentimentNeutral,
			},
			Tags:   []string{"#logistics", "#legal", "#urgent"},
			Status: StatusCompleted,
		},
	}
}

// MockContacts returns the static fallback contact list.
func MockContacts() []Contact {
	return []Contact{
		{ID: "1", Name: "Brandon Gilles", Phone: "+1555010203", Organization: "Luxe Real Estate", TotalCalls: 12, LastContacted: "2024-05-20T14:30:00.000Z"},
		{ID: "2", Name: "Sarah Miller", Phone: "+1555020304", Organization: "Quantum Tech", TotalCalls: 8, LastContacted: "2024-05-19T10:15:00.000Z"},
		{ID: "3", Name: "David Chen", Phone: "+1555030405", Organization: "Chen & Partners", TotalCalls: 4, LastContacted: "2024-05-18T16:45:00.000Z"},
		{ID: "4", Name: "Elena Rodriguez", Phone: "+1555040506", Organization: "Global Logistics", TotalCalls: 22, LastContacted: "2024-05-20T09:00:00.000Z"},
	}
}

// CloneCalls deep-copies a call slice so snapshots never alias live state.
func CloneCalls(calls []CallRecord) []CallRecord {
	if calls == nil {
		return nil
	}
	out := make([]CallRecord, len(calls))
	for i, c := range calls {
		out[i] = c.Clone()
	}
	return out
}

// Clone deep-copies the record.
func (c CallRecord) Clone() CallRecord {
	c.Tags = copyStrings(c.Tags)
	if c.ExecutiveBrief != nil {
		b := *c.ExecutiveBrief
		b.ActionItems = copyStrings(b.ActionItems)
		b.Tags = copyStrings(b.Tags)
		c.ExecutiveBrief = &b
	}
	return c
}

// CloneContacts copies a contact slice.
func CloneContacts(contacts []Contact) []Contact {
	if contacts == nil {
		return nil
	}
	out := make([]Contact, len(contacts))
	copy(out, contacts)
	return out
}
