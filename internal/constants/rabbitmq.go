package constants

// Routing topology for the notification exchange. The notification
// dispatcher binds its own queue to this routing key.
const (
	NotificationExchange  = "notification_exchange"
	RoutingKeyMatchEvents = "match.created"
)
