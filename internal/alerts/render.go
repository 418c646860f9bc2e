package alerts

import (
	"fmt"

	"github.com/sudo-init-do/fixhub/internal/marketplace"
)

// Audience is who a rendered message goes to.
type Audience int

const (
	ToCustomer Audience = iota
	ToPro
	// ToTrade is every active pro working the event's trade.
	ToTrade
)

// Message is one notification rendered from a job event.
type Message struct {
	Audience Audience
	Title    string
	Body     string
}

func jobLink(appURL, jobID string) string {
	return fmt.Sprintf("%s/jobs/%s", appURL, jobID)
}

// Render produces the notifications for a job event. Unknown event types
// render nothing.
func Render(evt marketplace.Event, appURL string) []Message {
	link := jobLink(appURL, evt.JobID)
	switch evt.Type {
	case marketplace.EventBroadcastPosted:
		return []Message{{
			Audience: ToTrade,
			Title:    fmt.Sprintf("New %s job near you", evt.Trade),
			Body:     fmt.Sprintf("A customer needs help with %q. Claim it before someone else does: %s/market", evt.ServiceName, appURL),
		}}
	case marketplace.EventAssigned:
		return []Message{{
			Audience: ToPro,
			Title:    "New job assigned",
			Body:     fmt.Sprintf("You have a new %q job. Details: %s", evt.ServiceName, link),
		}}
	case marketplace.EventClaimed:
		return []Message{{
			Audience: ToCustomer,
			Title:    "A pro is on the way",
			Body:     fmt.Sprintf("A pro accepted your %q request. Track it here: %s", evt.ServiceName, link),
		}}
	case marketplace.EventArrived:
		return []Message{{
			Audience: ToCustomer,
			Title:    "Your pro has arrived",
			Body:     fmt.Sprintf("Your pro is at the door for %q.", evt.ServiceName),
		}}
	case marketplace.EventPaymentRequested:
		return []Message{{
			Audience: ToCustomer,
			Title:    "Payment requested",
			Body:     fmt.Sprintf("Your invoice for %q is ready. Amount due: %s. Pay here: %s", evt.ServiceName, evt.Amount, link),
		}}
	case marketplace.EventPaid:
		return []Message{{
			Audience: ToPro,
			Title:    "Payment received",
			Body:     fmt.Sprintf("%s was added to your wallet for %q.", evt.Amount, evt.ServiceName),
		}}
	case marketplace.EventCompleted:
		return []Message{{
			Audience: ToPro,
			Title:    "Job completed",
			Body:     fmt.Sprintf("The customer marked %q as complete.", evt.ServiceName),
		}}
	case marketplace.EventRated:
		if evt.Rating == nil {
			return nil
		}
		return []Message{{
			Audience: ToPro,
			Title:    "New rating",
			Body:     fmt.Sprintf("You received a rating of %d for %q.", *evt.Rating, evt.ServiceName),
		}}
	}
	return nil
}
