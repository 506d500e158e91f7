package commands

import (
	"fmt"

	"github.com/dejobratic/cafe/internal/mail"
	notificationsapp "github.com/dejobratic/cafe/internal/notifications/app"
	notificationsdomain "github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/outbox"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
	EventPointsAwarded      = "order.points_awarded"
)

// BrokerPayload is what downstream consumers receive on the order topic.
type BrokerPayload struct {
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id,omitempty"`
	Status        string `json:"status"`
	Total         string `json:"total"`
	PaymentMethod string `json:"payment_method"`
	IsPaid        bool   `json:"is_paid"`
}

func brokerEvent(eventType string, order domain.Order) (outbox.Event, error) {
	return outbox.NewEvent(outbox.SinkBroker, eventType, order.ID, BrokerPayload{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        string(order.Status),
		Total:         order.Total.StringFixed(2),
		PaymentMethod: string(order.PaymentMethod),
		IsPaid:        order.IsPaid,
	})
}

// ShortID is the customer-facing order reference.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type eventList struct {
	events []outbox.Event
	err    error
}

func (l *eventList) add(event outbox.Event, err error) {
	if l.err != nil {
		return
	}
	if err != nil {
		l.err = err
		return
	}
	l.events = append(l.events, event)
}

// placementEvents builds the side effects of a new order. Guests get no
// notifications since they have no inbox.
func placementEvents(order domain.Order) ([]outbox.Event, error) {
	var list eventList
	ref := ShortID(order.ID)

	if !order.IsGuest() {
		list.add(notificationsapp.NotificationEvent(order.ID, notificationsapp.NotificationPayload{
			UserID:  order.UserID,
			Type:    notificationsdomain.TypeOrderPlaced,
			Message: fmt.Sprintf("Your order #%s for %s has been placed.", ref, order.Total.StringFixed(2)),
		}))
		if order.PointsRedeemed > 0 {
			list.add(notificationsapp.NotificationEvent(order.ID, notificationsapp.NotificationPayload{
				UserID:  order.UserID,
				Type:    notificationsdomain.TypePointsRedeemed,
				Message: fmt.Sprintf("You redeemed %d reward points on order #%s.", order.PointsRedeemed, ref),
			}))
		}
	}

	actor := order.UserID
	if actor == "" {
		actor = "guest"
	}
	list.add(notificationsapp.AuditEvent(notificationsapp.AuditPayload{
		ActorID:  actor,
		Action:   EventOrderPlaced,
		Entity:   "order",
		EntityID: order.ID,
		Details: map[string]any{
			"total":           order.Total.StringFixed(2),
			"payment_method":  string(order.PaymentMethod),
			"coupon_code":     order.CouponCode,
			"points_redeemed": order.PointsRedeemed,
		},
	}))

	if order.CustomerEmail != "" {
		list.add(mail.NewEvent(EventOrderPlaced, order.ID, mail.Request{
			To:       order.CustomerEmail,
			Template: mail.TemplateOrderConfirmation,
			Data:     confirmationData(order),
		}))
	}

	list.add(brokerEvent(EventOrderPlaced, order))
	return list.events, list.err
}

func confirmationData(order domain.Order) map[string]any {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"name":     item.Name,
			"quantity": item.Quantity,
			"price":    item.Price.StringFixed(2),
		})
	}

	data := map[string]any{
		"name":            order.ShippingAddress.Name,
		"order_id":        ShortID(order.ID),
		"items":           items,
		"total":           order.Total.StringFixed(2),
		"payment_method":  string(order.PaymentMethod),
		"points_redeemed": order.PointsRedeemed,
	}
	if order.Discount.IsPositive() {
		data["discount"] = order.Discount.StringFixed(2)
	}
	return data
}

// StatusEvents builds the side effects of an admin status change. award is
// the number of points credited by this change.
func StatusEvents(order domain.Order, actorID string, previous domain.Status, award int) ([]outbox.Event, error) {
	var list eventList
	ref := ShortID(order.ID)

	if !order.IsGuest() {
		list.add(notificationsapp.NotificationEvent(order.ID, notificationsapp.NotificationPayload{
			UserID:  order.UserID,
			Type:    notificationsdomain.TypeOrderStatus,
			Message: fmt.Sprintf("Your order #%s is now %s.", ref, order.Status),
		}))
	}
	if award > 0 {
		list.add(notificationsapp.NotificationEvent(order.ID, notificationsapp.NotificationPayload{
			UserID:  order.UserID,
			Type:    notificationsdomain.TypePointsAwarded,
			Message: fmt.Sprintf("You earned %d reward points for order #%s.", award, ref),
		}))
		if order.CustomerEmail != "" {
			list.add(mail.NewEvent(EventPointsAwarded, order.ID, mail.Request{
				To:       order.CustomerEmail,
				Template: mail.TemplatePointsAwarded,
				Data:     map[string]any{"order_id": ref, "points": award},
			}))
		}
	} else if order.CustomerEmail != "" {
		list.add(mail.NewEvent(EventOrderStatusChanged, order.ID, mail.Request{
			To:       order.CustomerEmail,
			Template: mail.TemplateOrderStatus,
			Data:     map[string]any{"order_id": ref, "status": string(order.Status)},
		}))
	}

	list.add(notificationsapp.AuditEvent(notificationsapp.AuditPayload{
		ActorID:  actorID,
		Action:   EventOrderStatusChanged,
		Entity:   "order",
		EntityID: order.ID,
		Details: map[string]any{
			"from":           string(previous),
			"to":             string(order.Status),
			"points_awarded": award,
		},
	}))
	list.add(brokerEvent(EventOrderStatusChanged, order))
	return list.events, list.err
}
