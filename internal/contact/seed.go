package contact

import (
	"time"

	"github.com/mmynk/storefront/internal/models"
)

// sampleMessages returns the demonstration inbox, timestamped relative to now.
// Ids 1..5 are fixed; Submit never hands out an id already stored.
func sampleMessages(now time.Time) []models.ContactMessage {
	now = now.UTC()
	return []models.ContactMessage{
		{
			ID:        1,
			Name:      "John Smith",
			Email:     "john.smith@email.com",
			Subject:   models.SubjectOrder,
			Message:   "Hi, I have a question about my recent order #12345. The tracking shows it was delivered but I haven't received it yet. Could you please help me locate my package?",
			Timestamp: now.Add(-48 * time.Hour),
		},
		{
			ID:        2,
			Name:      "Sarah Johnson",
			Email:     "sarah.j@gmail.com",
			Subject:   models.SubjectReturn,
			Message:   "I would like to return a shirt I purchased last week. It doesn't fit properly and I'd like to exchange it for a different size. What's the process for returns?",
			Timestamp: now.Add(-24 * time.Hour),
		},
		{
			ID:        3,
			Name:      "Mike Chen",
			Email:     "mchen@business.com",
			Subject:   models.SubjectPartnership,
			Message:   "Hello, I represent a local business and we're interested in partnering with you for bulk orders. Could we schedule a meeting to discuss wholesale pricing and terms?",
			Timestamp: now.Add(-6 * time.Hour),
		},
		{
			ID:        4,
			Name:      "Emma Wilson",
			Email:     "emma.wilson94@email.com",
			Subject:   models.SubjectFeedback,
			Message:   "I just wanted to say that your customer service is amazing! The team helped me find exactly what I was looking for and the delivery was super fast. Keep up the great work!",
			Timestamp: now.Add(-2 * time.Hour),
		},
		{
			ID:        5,
			Name:      "David Brown",
			Email:     "dbrown@techcorp.com",
			Subject:   models.SubjectSupport,
			Message:   "I'm having trouble with the checkout process. Every time I try to complete my purchase, I get an error message. I've tried different browsers and payment methods but nothing works. Please help!",
			Timestamp: now.Add(-30 * time.Minute),
		},
	}
}
